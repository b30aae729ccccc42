package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teracodec-project/teracodec/internal/registry"
	"github.com/teracodec-project/teracodec/internal/schema"
)

type schemaSummary struct {
	Name         string `json:"name"`
	Version      int    `json:"version"`
	Opcode       *int32 `json:"opcode,omitempty"`
	FieldCount   int    `json:"field_count"`
	ExplicitMeta bool   `json:"explicit_meta"`
}

// handleListSchemas returns every (name, version) pair currently registered.
func (s *Server) handleListSchemas(c *gin.Context) {
	reg := s.codec.Registry()
	schemas := reg.Schemas()

	out := make([]schemaSummary, 0, len(schemas))
	for _, sc := range schemas {
		out = append(out, toSchemaSummary(reg, sc))
	}

	c.JSON(http.StatusOK, gin.H{"schemas": out})
}

// handleGetSchema returns every version registered under :name, or a
// single version when ?version= is given.
func (s *Server) handleGetSchema(c *gin.Context) {
	name := c.Param("name")
	reg := s.codec.Registry()

	if v := c.Query("version"); v != "" {
		var version any = v
		if n, err := strconv.Atoi(v); err == nil {
			version = n
		}
		resolved, warnings, err := reg.Resolve(name, version, "")
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"schema":   toSchemaSummary(reg, resolved.Schema),
			"warnings": warningStrings(warnings),
		})
		return
	}

	var matches []schemaSummary
	for _, sc := range reg.Schemas() {
		if sc.Name == name {
			matches = append(matches, toSchemaSummary(reg, sc))
		}
	}
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no schema registered for name " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schemas": matches})
}

func toSchemaSummary(reg *registry.Registry, sc *schema.Schema) schemaSummary {
	summary := schemaSummary{
		Name:         sc.Name,
		Version:      sc.Version,
		FieldCount:   sc.FieldCount(),
		ExplicitMeta: sc.ExplicitMeta,
	}
	if resolved, _, err := reg.Resolve(sc.Name, sc.Version, ""); err == nil {
		summary.Opcode = resolved.Code
	}
	return summary
}

func warningStrings(warnings []schema.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.String())
	}
	return out
}
