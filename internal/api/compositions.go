package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/toplist/toplist/internal/apperr"
	"github.com/toplist/toplist/internal/composer"
	"github.com/toplist/toplist/internal/media"
	"github.com/toplist/toplist/internal/publish"
	"github.com/toplist/toplist/internal/reorder"
	"github.com/toplist/toplist/internal/session"
	"github.com/toplist/toplist/internal/validation"
)

var requestValidator = validation.New()

// CompositionResponse is the state of a composition after a change.
type CompositionResponse struct {
	ID      string            `json:"id"`
	Item    *composer.Draft   `json:"item,omitempty"`
	Outcome *reorder.Outcome  `json:"outcome,omitempty"`
	State   composer.Snapshot `json:"state"`
}

type addItemRequest struct {
	Media  *media.SearchResult `json:"media" validate:"required"`
	Score  *int                `json:"score" validate:"required"`
	Review string              `json:"review" validate:"max=5000"`
}

type updateItemRequest struct {
	Score  *int    `json:"score"`
	Review *string `json:"review"`
}

type reorderRequest struct {
	From *int `json:"from" validate:"required"`
	To   *int `json:"to" validate:"required"`
}

type scoreRequest struct {
	Score *int `json:"score" validate:"required,gte=1,lte=10"`
}

// bindValid binds the body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return requestValidator.Validate(req)
}

// mutate runs fn on the composition and answers with its new state.
func (s *Server) mutate(c echo.Context, status int, fn func(sess *session.Session, resp *CompositionResponse) error) error {
	id := c.Param("id")
	resp := CompositionResponse{ID: id}
	err := s.sessions.With(id, func(sess *session.Session) error {
		if err := fn(sess, &resp); err != nil {
			return err
		}
		resp.State = sess.Composition.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(status, resp)
}

// createComposition starts an empty composition.
// POST /api/v1/compositions
func (s *Server) createComposition(c echo.Context) error {
	return c.JSON(http.StatusCreated, s.sessions.Create())
}

// getComposition returns a composition.
// GET /api/v1/compositions/:id
func (s *Server) getComposition(c echo.Context) error {
	info, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// discardComposition drops a composition without publishing it.
// DELETE /api/v1/compositions/:id
func (s *Server) discardComposition(c echo.Context) error {
	id := c.Param("id")
	if !s.sessions.Discard(id) {
		return apperr.NotFoundf("composition %s not found", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// addItem scores a picked search result into the composition.
// POST /api/v1/compositions/:id/items
func (s *Server) addItem(c echo.Context) error {
	var req addItemRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	return s.mutate(c, http.StatusCreated, func(sess *session.Session, resp *CompositionResponse) error {
		draft, err := sess.Composition.AddItem(*req.Media, *req.Score, req.Review)
		if err != nil {
			return err
		}
		resp.Item = &draft
		return nil
	})
}

// updateItem changes an item's score, review or both.
// PATCH /api/v1/compositions/:id/items/:itemId
func (s *Server) updateItem(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Score == nil && req.Review == nil {
		return apperr.Validation("score or review is required")
	}
	itemID := c.Param("itemId")

	return s.mutate(c, http.StatusOK, func(sess *session.Session, resp *CompositionResponse) error {
		comp := sess.Composition
		if _, ok := comp.Item(itemID); !ok {
			return apperr.NotFoundf("item %s not found", itemID)
		}
		if req.Score != nil {
			if err := comp.UpdateScore(itemID, *req.Score); err != nil {
				return err
			}
		}
		if req.Review != nil {
			if err := comp.UpdateReview(itemID, *req.Review); err != nil {
				return err
			}
		}
		draft, _ := comp.Item(itemID)
		resp.Item = &draft
		return nil
	})
}

// removeItem drops an item. Removing an unknown item is not an error.
// DELETE /api/v1/compositions/:id/items/:itemId
func (s *Server) removeItem(c echo.Context) error {
	itemID := c.Param("itemId")
	return s.mutate(c, http.StatusOK, func(sess *session.Session, _ *CompositionResponse) error {
		sess.Composition.RemoveItem(itemID)
		return nil
	})
}

// reorder moves one item and switches the composition to manual order.
// POST /api/v1/compositions/:id/reorder
func (s *Server) reorder(c echo.Context) error {
	var req reorderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	return s.mutate(c, http.StatusOK, func(sess *session.Session, _ *CompositionResponse) error {
		return sess.Composition.Reorder(*req.From, *req.To)
	})
}

// replayDrag runs a recorded pointer or keyboard gesture through the
// reorder surface.
// POST /api/v1/compositions/:id/drag
func (s *Server) replayDrag(c echo.Context) error {
	var gesture reorder.Gesture
	if err := c.Bind(&gesture); err != nil {
		return err
	}

	return s.mutate(c, http.StatusOK, func(sess *session.Session, resp *CompositionResponse) error {
		outcome, err := sess.Surface.Replay(gesture)
		if err != nil {
			return err
		}
		resp.Outcome = &outcome
		return nil
	})
}

// restoreScoreOrder puts the composition back into score order.
// POST /api/v1/compositions/:id/restore-order
func (s *Server) restoreScoreOrder(c echo.Context) error {
	return s.mutate(c, http.StatusOK, func(sess *session.Session, _ *CompositionResponse) error {
		sess.Composition.RestoreScoreOrder()
		return nil
	})
}

// sortByDate orders the composition by release year.
// POST /api/v1/compositions/:id/date-order
func (s *Server) sortByDate(c echo.Context) error {
	return s.mutate(c, http.StatusOK, func(sess *session.Session, _ *CompositionResponse) error {
		sess.Composition.SortByDate()
		return nil
	})
}

// publishComposition submits the composition as a ranking on behalf of the
// caller. The composition is dropped once the backend accepts it and kept
// for a retry otherwise.
// POST /api/v1/compositions/:id/publish
func (s *Server) publishComposition(c echo.Context) error {
	var meta publish.Metadata
	if err := c.Bind(&meta); err != nil {
		return err
	}
	token := bearerToken(c)
	id := c.Param("id")

	var result publish.Result
	err := s.sessions.Consume(id, func(sess *session.Session) error {
		var err error
		result, err = s.assembler.Publish(c.Request().Context(), token, sess.Composition, meta)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// updateRankingItemScore changes the score of an item of a published ranking.
// PATCH /api/v1/rankings/:rankingId/items/:itemId/score
func (s *Server) updateRankingItemScore(c echo.Context) error {
	var req scoreRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	itemID := c.Param("itemId")
	if err := s.backendClient.UpdateItemScore(c.Request().Context(), bearerToken(c), itemID, *req.Score); err != nil {
		return err
	}

	s.logger.Info().
		Str("rankingId", c.Param("rankingId")).
		Str("itemId", itemID).
		Int("score", *req.Score).
		Msg("Ranking item score updated")

	return c.JSON(http.StatusOK, map[string]any{
		"rankingId": c.Param("rankingId"),
		"itemId":    itemID,
		"score":     *req.Score,
	})
}

// bearerToken returns the caller's access token, or "".
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
