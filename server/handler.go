package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/trade"
)

type answerRequest struct {
	Query string `json:"query" validate:"required"`
}

type holdingRequest struct {
	Token string  `param:"token" json:"-" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
}

type factsResponse struct {
	Count int           `json:"count"`
	Facts []entity.Fact `json:"facts"`
}

type holdingsResponse struct {
	Total    float64            `json:"total"`
	Holdings map[string]float64 `json:"holdings"`
	Weights  map[string]float64 `json:"weights"`
	Risk     float64            `json:"risk_score"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"name":   s.name,
		"facts":  s.knowledge.Store().Len(),
	})
}

func (s *Server) handleAnswer(c echo.Context) error {
	var req answerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	answer, err := s.answerer.Answer(c.Request().Context(), req.Query)
	if err != nil {
		s.log.Error().Err(err).Str("query", req.Query).Msg("failed to answer")
		return echo.NewHTTPError(http.StatusBadGateway, "failed to answer query").SetInternal(err)
	}
	return c.JSON(http.StatusOK, answer)
}

func (s *Server) handleSignal(c echo.Context) error {
	var req entity.PriceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.executor.Evaluate(req))
}

// handleFacts 支持 ?predicate= 过滤
func (s *Server) handleFacts(c echo.Context) error {
	facts := s.knowledge.Store().Facts()
	if predicate := c.QueryParam("predicate"); predicate != "" {
		facts = lo.Filter(facts, func(f entity.Fact, _ int) bool {
			return f.Predicate == predicate
		})
	}
	return c.JSON(http.StatusOK, factsResponse{Count: len(facts), Facts: facts})
}

func (s *Server) handleHoldings(c echo.Context) error {
	holdings := s.book.All()
	return c.JSON(http.StatusOK, holdingsResponse{
		Total:    lo.Sum(lo.Values(holdings)),
		Holdings: holdings,
		Weights:  s.book.Weights(),
		Risk:     s.knowledge.PortfolioRisk(holdings),
	})
}

func (s *Server) handleSetHolding(c echo.Context) error {
	var req holdingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := s.book.Set(req.Token, req.Value); err != nil {
		if errors.Is(err, trade.ErrNegativeHolding) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return s.handleHoldings(c)
}

func (s *Server) handleRemoveHolding(c echo.Context) error {
	s.book.Remove(c.Param("token"))
	return c.NoContent(http.StatusNoContent)
}
