package capability

import (
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// UtilsCapability exposes small helpers:
//
//	utils.now()        -> RFC 3339 timestamp (UTC)
//	utils.uuid()       -> random UUID
//	utils.slugify(s)   -> lower-case, dash-separated slug
type UtilsCapability struct{}

func (UtilsCapability) Name() Name { return Utils }

func (UtilsCapability) Build(env *Env) (*goja.Object, error) {
	rt := env.Runtime
	obj := rt.NewObject()

	method(rt, obj, "now", func(goja.FunctionCall) (interface{}, error) {
		return time.Now().UTC().Format(time.RFC3339), nil
	})
	method(rt, obj, "uuid", func(goja.FunctionCall) (interface{}, error) {
		return uuid.NewString(), nil
	})
	method(rt, obj, "slugify", func(call goja.FunctionCall) (interface{}, error) {
		return Slugify(argString(call, 0)), nil
	})
	return obj, nil
}

var nonSlugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugRegex.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
