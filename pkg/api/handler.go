package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/function/store"
)

const yamlContentType = "application/yaml"

// FunctionHandler serves the function endpoints.
type FunctionHandler struct {
	svc *service.Service
}

// NewFunctionHandler creates a FunctionHandler.
func NewFunctionHandler(svc *service.Service) *FunctionHandler {
	return &FunctionHandler{svc: svc}
}

func respond(c *gin.Context, resp *service.Response) {
	c.JSON(statusFor(resp), resp)
}

// List lists functions.
// GET /api/v1/functions?tag=a&tag=b&pattern=calc*&q=text&created_by=x&limit=10
func (h *FunctionHandler) List(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		respond(c, h.svc.Search(q))
		return
	}

	req := service.ListRequest{
		Tags:        c.QueryArray("tag"),
		NamePattern: c.Query("pattern"),
		CreatedBy:   c.Query("created_by"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respond(c, badRequest(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		req.Limit = limit
	}
	respond(c, h.svc.List(req))
}

// Create registers a function.
// POST /api/v1/functions
func (h *FunctionHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, badRequest(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	resp := h.svc.Register(c.Request.Context(), service.RegisterRequest{
		Definition: req.Definition,
		CreatedBy:  req.CreatedBy,
	})
	if resp.Success {
		c.JSON(http.StatusCreated, resp)
		return
	}
	respond(c, resp)
}

// Get returns one function.
// GET /api/v1/functions/:id
func (h *FunctionHandler) Get(c *gin.Context) {
	respond(c, h.svc.Get(c.Param("id")))
}

// Update patches a function.
// PATCH /api/v1/functions/:id
func (h *FunctionHandler) Update(c *gin.Context) {
	var patch store.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond(c, badRequest(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if patch.IsEmpty() {
		respond(c, badRequest("patch changes nothing"))
		return
	}
	respond(c, h.svc.Update(c.Request.Context(), c.Param("id"), patch))
}

// Delete removes a function. Unknown functions report deleted=false.
// DELETE /api/v1/functions/:id
func (h *FunctionHandler) Delete(c *gin.Context) {
	respond(c, h.svc.Delete(c.Request.Context(), c.Param("id")))
}

// Execute runs a function.
// POST /api/v1/functions/:id/execute
func (h *FunctionHandler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond(c, badRequest(fmt.Sprintf("invalid request body: %v", err)))
			return
		}
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}
	respond(c, h.svc.Execute(c.Request.Context(), c.Param("id"), req.Args))
}

// Validate checks a definition without storing it.
// POST /api/v1/functions/validate
func (h *FunctionHandler) Validate(c *gin.Context) {
	var def function.Definition
	if err := c.ShouldBindJSON(&def); err != nil {
		respond(c, badRequest(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	// An invalid definition is still a successful request.
	resp := h.svc.Validate(def)
	c.JSON(http.StatusOK, resp)
}

// Stats returns usage and runtime counters.
// GET /api/v1/functions/stats
func (h *FunctionHandler) Stats(c *gin.Context) {
	respond(c, h.svc.Stats())
}

// Export returns a backup document, as YAML when format=yaml.
// GET /api/v1/functions/export?format=yaml
func (h *FunctionHandler) Export(c *gin.Context) {
	doc := h.svc.Export().Data.(*store.Document)
	enc := store.EncodingJSON
	contentType := "application/json"
	if strings.EqualFold(c.Query("format"), "yaml") {
		enc, contentType = store.EncodingYAML, yamlContentType
	}
	data, err := store.Marshal(doc, enc)
	if err != nil {
		respond(c, service.Fail(err))
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// Import replaces every stored function with the posted backup. YAML bodies
// are accepted with an application/yaml content type.
// POST /api/v1/functions/import
func (h *FunctionHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respond(c, badRequest(fmt.Sprintf("read body: %v", err)))
		return
	}
	enc := store.EncodingJSON
	if strings.Contains(c.ContentType(), "yaml") {
		enc = store.EncodingYAML
	}
	doc, err := store.Unmarshal(body, enc)
	if err != nil {
		respond(c, badRequest(err.Error()))
		return
	}
	respond(c, h.svc.Import(c.Request.Context(), doc))
}

// Capabilities lists the capability names available to function bodies.
// GET /api/v1/capabilities
func (h *FunctionHandler) Capabilities(c *gin.Context) {
	respond(c, service.OK(h.svc.Capabilities()))
}
