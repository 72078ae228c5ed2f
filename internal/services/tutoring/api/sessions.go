package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/louisbranch/studyhall/internal/payments"
	"github.com/louisbranch/studyhall/internal/session"
)

// SessionResponse is the wire shape of one session record.
// Timestamps and deadlines are Unix milliseconds.
type SessionResponse struct {
	ID                 string   `json:"id"`
	Student            string   `json:"student"`
	Teacher            string   `json:"teacher,omitempty"`
	Description        string   `json:"description"`
	Objectives         string   `json:"objectives"`
	Materials          []string `json:"materials"`
	Price              int64    `json:"price"`
	EscrowBalance      int64    `json:"escrow_balance"`
	State              string   `json:"state"`
	Progress           int      `json:"progress"`
	Feedback           string   `json:"feedback,omitempty"`
	Rating             int      `json:"rating,omitempty"`
	SessionDeadline    *int64   `json:"session_deadline,omitempty"`
	AssignmentDeadline *int64   `json:"assignment_deadline,omitempty"`
	CreatedAt          int64    `json:"created_at"`
	UpdatedAt          int64    `json:"updated_at"`
}

func toSessionResponse(s session.Session) SessionResponse {
	resp := SessionResponse{
		ID:            s.ID,
		Student:       s.Student,
		Teacher:       s.Teacher,
		Description:   s.Description,
		Objectives:    s.Objectives,
		Materials:     s.Materials,
		Price:         s.Price,
		EscrowBalance: s.Escrow.Balance,
		State:         s.State.String(),
		Progress:      s.Progress,
		Feedback:      s.Feedback,
		Rating:        s.Rating,
		CreatedAt:     s.CreatedAt.UnixMilli(),
		UpdatedAt:     s.UpdatedAt.UnixMilli(),
	}
	if s.SessionDeadline != nil {
		millis := s.SessionDeadline.UnixMilli()
		resp.SessionDeadline = &millis
	}
	if s.AssignmentDeadline != nil {
		millis := s.AssignmentDeadline.UnixMilli()
		resp.AssignmentDeadline = &millis
	}
	return resp
}

// TransferResponse is the wire shape of one settlement record.
type TransferResponse struct {
	Reference string `json:"reference"`
	SessionID string `json:"session_id"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

func toTransferResponse(t payments.Transfer) TransferResponse {
	return TransferResponse{
		Reference: t.Reference,
		SessionID: t.SessionID,
		Recipient: t.Recipient,
		Amount:    t.Amount,
		CreatedAt: t.CreatedAt.UnixMilli(),
	}
}

// BookSessionRequest is the request to create a session.
type BookSessionRequest struct {
	Description string   `json:"description"`
	Objectives  string   `json:"objectives"`
	Materials   []string `json:"materials"`
	Price       int64    `json:"price"`
}

// BookSession creates a new session owned by the caller.
// POST /v1/sessions
func (h *Handler) BookSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req BookSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	booked, err := h.svc.Book(ctx, actorID(c), session.BookInput{
		Description: req.Description,
		Objectives:  req.Objectives,
		Materials:   req.Materials,
		Price:       req.Price,
	})
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(booked))
}

// GetSession returns one session by ID.
// GET /v1/sessions/:id
func (h *Handler) GetSession(c echo.Context) error {
	record, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(record))
}

// ListSessions lists the sessions where the caller is a party.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.svc.List(c.Request().Context(), actorID(c))
	if err != nil {
		return renderError(c, err)
	}
	list := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		list[i] = toSessionResponse(s)
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": list})
}

// ListTransfers lists the settlement history of one session.
// GET /v1/sessions/:id/transfers
func (h *Handler) ListTransfers(c echo.Context) error {
	transfers, err := h.svc.Transfers(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	list := make([]TransferResponse, len(transfers))
	for i, t := range transfers {
		list[i] = toTransferResponse(t)
	}
	return c.JSON(http.StatusOK, map[string]any{"transfers": list})
}

// RequestTeacherRequest is the request to assign a teacher.
type RequestTeacherRequest struct {
	TeacherID string `json:"teacher_id"`
}

// RequestTeacher assigns the session to a teacher.
// POST /v1/sessions/:id/teacher
func (h *Handler) RequestTeacher(c echo.Context) error {
	var req RequestTeacherRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.RequestTeacher(c.Request().Context(), actorID(c), c.Param("id"), req.TeacherID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// CompleteSession marks the session as scheduled for delivery.
// POST /v1/sessions/:id/complete
func (h *Handler) CompleteSession(c echo.Context) error {
	updated, err := h.svc.Complete(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// DisputeSession opens a dispute on the session.
// POST /v1/sessions/:id/dispute
func (h *Handler) DisputeSession(c echo.Context) error {
	updated, err := h.svc.Dispute(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// ResolveSessionRequest is the request to settle a disputed session.
type ResolveSessionRequest struct {
	ToTeacher bool `json:"to_teacher"`
}

// ResolveSession settles a disputed session.
// POST /v1/sessions/:id/resolve
func (h *Handler) ResolveSession(c echo.Context) error {
	var req ResolveSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.Resolve(c.Request().Context(), actorID(c), c.Param("id"), req.ToTeacher)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// ReleasePayment pays the escrow out to the teacher.
// POST /v1/sessions/:id/release
func (h *Handler) ReleasePayment(c echo.Context) error {
	updated, err := h.svc.Release(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// AddFundsRequest is the request to deposit funds into escrow.
type AddFundsRequest struct {
	Amount int64 `json:"amount"`
}

// AddFunds deposits caller funds into the session escrow.
// POST /v1/sessions/:id/funds
func (h *Handler) AddFunds(c echo.Context) error {
	var req AddFundsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.AddFunds(c.Request().Context(), actorID(c), c.Param("id"), req.Amount)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// RefundFunds returns the escrow to the student.
// POST /v1/sessions/:id/refund
func (h *Handler) RefundFunds(c echo.Context) error {
	updated, err := h.svc.Refund(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// CancelSession resets the session to its open shape.
// POST /v1/sessions/:id/cancel
func (h *Handler) CancelSession(c echo.Context) error {
	updated, err := h.svc.Cancel(c.Request().Context(), actorID(c), c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// UpdateDescriptionRequest is the request to replace the description.
type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

// UpdateDescription replaces the session description.
// PUT /v1/sessions/:id/description
func (h *Handler) UpdateDescription(c echo.Context) error {
	var req UpdateDescriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.UpdateDescription(c.Request().Context(), actorID(c), c.Param("id"), req.Description)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// UpdateObjectivesRequest is the request to replace the learning objectives.
type UpdateObjectivesRequest struct {
	Objectives string `json:"objectives"`
}

// UpdateObjectives replaces the session learning objectives.
// PUT /v1/sessions/:id/objectives
func (h *Handler) UpdateObjectives(c echo.Context) error {
	var req UpdateObjectivesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.UpdateObjectives(c.Request().Context(), actorID(c), c.Param("id"), req.Objectives)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// AddMaterialRequest is the request to append one content item.
type AddMaterialRequest struct {
	Material string `json:"material"`
}

// AddMaterial appends one content item to the session materials.
// POST /v1/sessions/:id/materials
func (h *Handler) AddMaterial(c echo.Context) error {
	var req AddMaterialRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.AddMaterial(c.Request().Context(), actorID(c), c.Param("id"), req.Material)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// UpdatePriceRequest is the request to replace the advisory price.
type UpdatePriceRequest struct {
	Price int64 `json:"price"`
}

// UpdatePrice replaces the advisory session price.
// PUT /v1/sessions/:id/price
func (h *Handler) UpdatePrice(c echo.Context) error {
	var req UpdatePriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.UpdatePrice(c.Request().Context(), actorID(c), c.Param("id"), req.Price)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// ProvideFeedbackRequest is the request to record feedback.
type ProvideFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// ProvideFeedback records student feedback on a scheduled session.
// POST /v1/sessions/:id/feedback
func (h *Handler) ProvideFeedback(c echo.Context) error {
	var req ProvideFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.ProvideFeedback(c.Request().Context(), actorID(c), c.Param("id"), req.Feedback)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// ProvideRatingRequest is the request to record a rating.
type ProvideRatingRequest struct {
	Rating int `json:"rating"`
}

// ProvideRating records a student rating on a scheduled session.
// POST /v1/sessions/:id/rating
func (h *Handler) ProvideRating(c echo.Context) error {
	var req ProvideRatingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.ProvideRating(c.Request().Context(), actorID(c), c.Param("id"), req.Rating)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// DeadlinesRequest carries deadline values as Unix milliseconds.
type DeadlinesRequest struct {
	SessionDeadline    *int64 `json:"session_deadline"`
	AssignmentDeadline *int64 `json:"assignment_deadline"`
}

func deadlineFromMillis(millis *int64) *time.Time {
	if millis == nil {
		return nil
	}
	value := time.UnixMilli(*millis).UTC()
	return &value
}

// SetDeadlines sets both deadlines, clearing ones absent from the request.
// PUT /v1/sessions/:id/deadlines
func (h *Handler) SetDeadlines(c echo.Context) error {
	var req DeadlinesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.SetDeadlines(c.Request().Context(), actorID(c), c.Param("id"),
		deadlineFromMillis(req.SessionDeadline), deadlineFromMillis(req.AssignmentDeadline))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}

// UpdateDeadlines overwrites only the deadlines present in the request.
// PATCH /v1/sessions/:id/deadlines
func (h *Handler) UpdateDeadlines(c echo.Context) error {
	var req DeadlinesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	updated, err := h.svc.UpdateDeadlines(c.Request().Context(), actorID(c), c.Param("id"),
		deadlineFromMillis(req.SessionDeadline), deadlineFromMillis(req.AssignmentDeadline))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(updated))
}
