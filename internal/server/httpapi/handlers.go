package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
	"github.com/dmitrijs2005/ecopoints/internal/server/services"
)

const (
	maxBodyBytes        = 1 << 16
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// decimalNumber is the JSON number grammar. Form values must match it so
// both encodings accept the same amounts.
var decimalNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Ledger is the deposit and balance side of the service.
type Ledger interface {
	Deposit(ctx context.Context, phone string, weight models.Quantity) (*models.DepositResult, error)
	Dashboard(ctx context.Context, memberID int64) (*services.Dashboard, error)
	History(ctx context.Context, memberID int64, limit int) ([]*models.DepositEvent, error)
}

// Accounts registers and authenticates members.
type Accounts interface {
	Register(ctx context.Context, reg services.Registration) (*models.Session, error)
	Login(ctx context.Context, username, password string) (*models.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type handlers struct {
	ledger       Ledger
	accounts     Accounts
	health       func(ctx context.Context) error
	cookieSecure bool
	log          logging.Logger
}

type depositRequest struct {
	Phone       string       `json:"phone"`
	TrashAmount *json.Number `json:"trash_amount"`
}

type depositExistingResponse struct {
	Message      string          `json:"message"`
	Phone        string          `json:"phone"`
	TotalGarbage models.Quantity `json:"totalGarbage"`
	PointsEarned models.Quantity `json:"pointsEarned"`
	TotalPoints  models.Quantity `json:"totalPoints"`
}

type depositCreatedResponse struct {
	Message string          `json:"message"`
	Phone   string          `json:"phone"`
	Garbage models.Quantity `json:"garbage"`
	Point   models.Quantity `json:"point"`
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, common.ErrUnauthenticated)
}

// decodeInput fills dst from a JSON body or, for anything else, from form
// values through the form callback.
func decodeInput(w http.ResponseWriter, r *http.Request, dst any, form func(get func(string) string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if isJSON(r) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	form(r.PostForm.Get)
	return nil
}

func (h *handlers) deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	err := decodeInput(w, r, &req, func(get func(string) string) {
		req.Phone = get("phone")
		if v := get("trash_amount"); v != "" {
			n := json.Number(strings.TrimSpace(v))
			req.TrashAmount = &n
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if req.TrashAmount == nil {
		writeError(w, common.ErrInvalidInput)
		return
	}
	if !decimalNumber.MatchString(req.TrashAmount.String()) {
		writeError(w, fmt.Errorf("%w: trash_amount: not a decimal number", common.ErrInvalidInput))
		return
	}
	weight, err := models.ParseQuantity(*req.TrashAmount)
	if err != nil {
		writeError(w, fmt.Errorf("%w: trash_amount: %v", common.ErrInvalidInput, err))
		return
	}

	res, err := h.ledger.Deposit(r.Context(), req.Phone, weight)
	if err != nil {
		writeError(w, err)
		return
	}

	if res.Created {
		writeJSON(w, http.StatusOK, depositCreatedResponse{
			Message: "New member created and points credited",
			Phone:   res.Phone,
			Garbage: res.CumulativeWeight,
			Point:   res.PointBalance,
		})
		return
	}
	writeJSON(w, http.StatusOK, depositExistingResponse{
		Message:      "Points credited",
		Phone:        res.Phone,
		TotalGarbage: res.CumulativeWeight,
		PointsEarned: res.PointsEarned,
		TotalPoints:  res.PointBalance,
	})
}

type registerRequest struct {
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeInput(w, r, &req, func(get func(string) string) {
		req = registerRequest{
			Phone:     get("phone"),
			FirstName: get("firstName"),
			LastName:  get("lastName"),
			Username:  get("username"),
			Password:  get("password"),
			Email:     get("email"),
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := h.accounts.Register(r.Context(), services.Registration(req))
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, r, s)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeInput(w, r, &req, func(get func(string) string) {
		req = loginRequest{Username: get("username"), Password: get("password")}
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, r, s)
}

func (h *handlers) startSession(w http.ResponseWriter, r *http.Request, s *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), sessionToken(r)); err != nil {
		h.log.Warn(r.Context(), "logout failed", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type depositView struct {
	ID           int64           `json:"id"`
	WeightAmount models.Quantity `json:"weight_amount"`
	PointsEarned models.Quantity `json:"points_earned"`
	CreatedAt    time.Time       `json:"created_at"`
}

type dashboardResponse struct {
	Username     string          `json:"username"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Phone        string          `json:"phone"`
	TotalGarbage models.Quantity `json:"totalGarbage"`
	TotalPoints  models.Quantity `json:"totalPoints"`
	DepositCount int64           `json:"depositCount"`
	Recent       []depositView   `json:"recent"`
}

func toDepositViews(events []*models.DepositEvent) []depositView {
	out := make([]depositView, 0, len(events))
	for _, e := range events {
		out = append(out, depositView{
			ID:           e.ID,
			WeightAmount: e.WeightAmount,
			PointsEarned: e.PointsEarned,
			CreatedAt:    e.CreatedAt.UTC(),
		})
	}
	return out
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	s, _ := SessionFromContext(r.Context())

	d, err := h.ledger.Dashboard(r.Context(), s.Member.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := dashboardResponse{
		Username:     d.Member.Username,
		FirstName:    d.Member.FirstName,
		LastName:     d.Member.LastName,
		Phone:        d.Member.Phone,
		TotalGarbage: d.Member.CumulativeWeight,
		TotalPoints:  d.Member.PointBalance,
		DepositCount: d.DepositCount,
		Recent:       toDepositViews(d.Recent),
	}

	if wantsHTML(r) {
		renderPage(w, h.log, r, dashboardPage, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	s, _ := SessionFromContext(r.Context())

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, common.ErrInvalidInput)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events, err := h.ledger.History(r.Context(), s.Member.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deposits": toDepositViews(events)})
}

func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.log, r, loginPage, nil)
}

func (h *handlers) registerPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.log, r, registerPage, nil)
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
