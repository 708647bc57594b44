package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// handleQuery routes and executes a natural-language query. With
// reflection enabled (the default) the agentic framework retries failed
// attempts; otherwise the router runs a single pass.
func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	ctx := c.Request.Context()

	if req.reflectionEnabled() {
		result, attempts := s.framework.ProcessWithReflection(ctx, req.Query, req.attempts())

		last := attempts[len(attempts)-1]
		c.JSON(http.StatusOK, QueryResponse{
			Query:  req.Query,
			Status: result.Status,
			Result: gin.H{
				"data":            result.Data,
				"steps_completed": result.StepsCompleted,
				"total_steps":     result.TotalSteps,
				"attempts":        attempts,
			},
			Error:       strings.Join(result.Errors, "; "),
			Explanation: last.Reflection.QualityAssessment,
			Timestamp:   time.Now().UTC(),
		})
		return
	}

	out, err := s.router.ProcessQuery(ctx, req.Query)
	if err != nil {
		s.abortError(c, err)
		return
	}
	reasoning, _ := out["reasoning"].(string)
	c.JSON(http.StatusOK, QueryResponse{
		Query:       req.Query,
		Status:      "success",
		Result:      out,
		Explanation: reasoning,
		Timestamp:   time.Now().UTC(),
	})
}

// handleAnalyzeQuery is a dry run: it reports how the query would be
// routed without executing any plugin.
func (s *Server) handleAnalyzeQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	isComplex, reasoning := s.router.AnalyzeComplexity(ctx, req.Query)

	out := gin.H{
		"query":                req.Query,
		"is_complex":           isComplex,
		"complexity_reasoning": reasoning,
		"timestamp":            time.Now().UTC(),
	}
	if isComplex {
		plan, err := s.router.PlanMultiStep(ctx, req.Query)
		if err != nil {
			s.abortError(c, err)
			return
		}
		out["plan"] = plan
	} else {
		decision, err := s.router.Route(ctx, req.Query)
		if err != nil {
			s.abortError(c, err)
			return
		}
		out["routing"] = decision
	}
	c.JSON(http.StatusOK, out)
}
