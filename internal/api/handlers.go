package api

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"spreadpool/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// week reads the week from the path or query. Anything missing, unreadable
// or zero means the current week.
func (s *Server) week(c *fiber.Ctx) int {
	raw := c.Params("week")
	if raw == "" {
		raw = c.Query(models.FieldWeek)
	}
	return s.weekOrDefault(models.CoerceInt(raw))
}

func (s *Server) weekOrDefault(week int) int {
	if week <= 0 {
		return s.deps.Calendar.DefaultWeek(s.now())
	}
	return week
}

func (s *Server) getScores(c *fiber.Ctx) error {
	week := s.week(c)
	scores, err := s.deps.Scores.Fetch(c.UserContext(), week)
	if err != nil {
		log.Warn().Err(err).Int("week", week).Msg("Score fetch failed")
	}
	if scores == nil {
		scores = []models.Score{}
	}
	return c.JSON(scores)
}

func (s *Server) postScore(c *fiber.Ctx) error {
	score, err := decodeScore(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	saved := 0
	if score.Has(models.FieldGameID) {
		week := s.weekOrDefault(0)
		if score.Has(models.FieldWeek) {
			week = s.weekOrDefault(score.Week)
		}
		week = s.deps.Scores.Week(week)
		if score.Has(models.FieldWeek) {
			score.Week = week
		}

		saved, err = s.deps.Scores.Save(c.UserContext(), week, []models.Score{score})
		if err != nil {
			log.Warn().Err(err).Int("week", week).Int("game_id", score.GameID).Msg("Score save failed")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":        saved,
		"Success":     "Success",
		"status_code": fiber.StatusCreated,
	})
}

func decodeScore(c *fiber.Ctx) (models.Score, error) {
	var score models.Score
	if isJSON(c) {
		err := json.Unmarshal(c.Body(), &score)
		return score, err
	}

	params := map[string]string{}
	for key, values := range formValues(c) {
		params[key] = values[len(values)-1]
	}
	return models.ScoreFromParams(params), nil
}

func (s *Server) getSpreads(c *fiber.Ctx) error {
	week := s.week(c)
	spreads, err := s.deps.Spreads.Fetch(c.UserContext(), week)
	if err != nil {
		log.Warn().Err(err).Int("week", week).Msg("Spread fetch failed")
	}
	if spreads == nil {
		spreads = []models.Spread{}
	}
	return c.JSON(spreads)
}

func (s *Server) postSpread(c *fiber.Ctx) error {
	spread, err := decodeSpread(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if spread.Owner == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner is required")
	}

	week := s.deps.Spreads.Week(s.weekOrDefault(spread.Week))
	spread.Week = week
	if spread.Year == 0 {
		spread.Year = s.deps.Calendar.Year
	}

	saved, err := s.deps.Spreads.Save(c.UserContext(), week, []models.Spread{spread})
	if err != nil {
		log.Warn().Err(err).Int("week", week).Str("owner", spread.Owner).Msg("Spread save failed")
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// decodeSpread reads a JSON body, or a form where list-valued pick keys end
// in "[]"
func decodeSpread(c *fiber.Ctx) (models.Spread, error) {
	var spread models.Spread
	if isJSON(c) {
		err := json.Unmarshal(c.Body(), &spread)
		return spread, err
	}

	flat := map[string]any{}
	for key, values := range formValues(c) {
		if strings.HasSuffix(key, "[]") {
			flat[key] = values
			continue
		}
		flat[key] = values[len(values)-1]
	}
	body, err := json.Marshal(flat)
	if err != nil {
		return spread, err
	}
	err = json.Unmarshal(body, &spread)
	return spread, err
}

func (s *Server) getTally(c *fiber.Ctx) error {
	week := s.week(c)
	tallies, err := s.deps.Tally.Count(c.UserContext(), week)
	if err != nil {
		log.Warn().Err(err).Int("week", week).Msg("Tally failed")
	}
	if tallies == nil {
		tallies = []models.Tally{}
	}
	return c.JSON(tallies)
}

func (s *Server) postInboundMail(c *fiber.Ctx) error {
	result, err := s.deps.Ingester.Ingest(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"ingest_id": result.IngestID,
			"error":     err.Error(),
		})
	}
	if result.Owners == nil {
		result.Owners = []string{}
	}
	return c.JSON(result)
}

func (s *Server) getStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "OK"})
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{}
	for name, check := range s.deps.Health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != fiber.StatusOK {
		state = "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{"status": state, "checks": checks})
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON)
}

func formValues(c *fiber.Ctx) map[string][]string {
	values := map[string][]string{}
	if form, err := c.MultipartForm(); err == nil {
		for key, vs := range form.Value {
			values[key] = append(values[key], vs...)
		}
		return values
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		values[k] = append(values[k], string(value))
	})
	return values
}
