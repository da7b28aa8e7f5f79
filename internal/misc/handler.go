package misc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/middleware"
	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"
	"github.com/2beens/gymplan/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type SignInResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

type Handler struct {
	versionInfo string
	authService *auth.Service
	now         func() time.Time
}

func NewHandler(
	versionInfo string,
	authService *auth.Service,
) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		authService: authService,
		now:         time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	signInPerMin int,
	metricsManager *metrics.Manager,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")

	authSubrouter := mainRouter.PathPrefix("/auth").Subrouter()
	authSubrouter.
		HandleFunc("/signin", handler.handleSignIn).
		Methods("POST", "OPTIONS").Name("signin")
	authSubrouter.
		HandleFunc("/signout", handler.handleSignOut).
		Methods("POST", "OPTIONS").Name("signout")
	authSubrouter.
		HandleFunc("/me", handler.handleMe).
		Methods("GET", "OPTIONS").Name("me")

	// rate limit the auth endpoints to prevent credential guessing
	if rateLimiter != nil {
		authSubrouter.Use(middleware.RateLimit(rateLimiter, "signin", signInPerMin, metricsManager))
	}
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.signin")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds auth.Credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("signin, unmarshal json params: %s", err)
			http.Error(w, "signin failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("signin failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		creds = auth.Credentials{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, user, err := handler.authService.SignIn(ctx, creds, handler.now())
	if err != nil {
		if errors.Is(err, auth.ErrWrongCredentials) {
			log.Tracef("failed signin attempt for: %s", creds.Email)
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("signin failed, open session: %s", err)
		http.Error(w, "open session error", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.String("user.uid", user.UID))
	respJson, err := json.Marshal(SignInResponse{Token: token, User: user})
	if err != nil {
		log.Errorf("signin, marshal response: %s", err)
		http.Error(w, "signin failed", http.StatusInternalServerError)
		return
	}

	log.Trace("new signin success")
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.signout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := middleware.TokenFromRequest(r)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	signedOut, err := handler.authService.SignOut(ctx, authToken)
	if err != nil {
		log.Errorf("[failed signout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusInternalServerError)
		return
	}
	if !signedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Trace("signout success")
	pkg.WriteTextResponseOK(w, "signed-out")
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusUnauthorized)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("me, marshal user: %s", err)
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, userJson)
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
