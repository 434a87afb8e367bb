package script

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/funcbox/pkg/function"
)

// HeaderLines is the number of lines the lowered wrapper adds before the
// first line of the function body.
const HeaderLines = 3

var awaitRegex = regexp.MustCompile(`\bawait\b`)

// Lowered is the executable JavaScript form of a definition: a program whose
// completion value is the guest function itself.
type Lowered struct {
	Source     string // Full program text
	EntryPoint string // Name of the wrapped function
	Async      bool   // Whether the function was wrapped as async
}

// Lower wraps a definition's body into a strict-mode function expression
// that takes the declared parameters in order:
//
//	(function () {
//	"use strict";
//	return function name(a, b) {
//	<body>
//	};
//	})()
func Lower(def *function.Definition) Lowered {
	async := IsAsync(def)
	names := make([]string, len(def.Parameters))
	for i, p := range def.Parameters {
		names[i] = p.Name
	}

	keyword := "function"
	if async {
		keyword = "async function"
	}

	var b strings.Builder
	b.WriteString("(function () {\n")
	b.WriteString("\"use strict\";\n")
	fmt.Fprintf(&b, "return %s %s(%s) {\n", keyword, def.Name, strings.Join(names, ", "))
	b.WriteString(def.Code)
	b.WriteString("\n};\n})()")

	return Lowered{
		Source:     b.String(),
		EntryPoint: def.Name,
		Async:      async,
	}
}

// IsAsync reports whether the body must run as an async function: either
// the return type is a promise or the body awaits something.
func IsAsync(def *function.Definition) bool {
	return def.ReturnsPromise() || awaitRegex.MatchString(Blank(def.Code))
}

// BodyLine maps a line of the lowered source back to a line of the body.
func BodyLine(loweredLine int) int {
	line := loweredLine - HeaderLines
	if line < 1 {
		return 1
	}
	return line
}

// Fingerprint is the content identity of everything the lowered program is
// built from: the body, the parameter names and the async flag.
func Fingerprint(def *function.Definition) string {
	h := sha256.New()
	h.Write([]byte(def.Name))
	h.Write([]byte{0})
	for _, p := range def.Parameters {
		h.Write([]byte(p.Name))
		h.Write([]byte{0})
	}
	if IsAsync(def) {
		h.Write([]byte("async"))
	}
	h.Write([]byte{0})
	h.Write([]byte(def.Code))
	return hex.EncodeToString(h.Sum(nil))
}
