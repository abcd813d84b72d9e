package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/relationship-reminder/internal/application"
	"github.com/example/relationship-reminder/internal/config"
	httptransport "github.com/example/relationship-reminder/internal/http"
	"github.com/example/relationship-reminder/internal/persistence"
	"github.com/example/relationship-reminder/internal/persistence/sqlite"
	"github.com/example/relationship-reminder/internal/recurrence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.Open(sqlite.DefaultConfig(cfg.DatabaseFile))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	if err := storage.Seed(context.Background(), idGenerator, now); err != nil {
		logger.Error("failed to seed system templates", "error", err)
		os.Exit(1)
	}

	engine := recurrence.NewEngine(time.UTC)

	contactRepo := newContactRepositoryAdapter(storage.Contacts())
	eventRepo := newEventRepositoryAdapter(storage.Events())
	templateRepo := newTemplateRepositoryAdapter(storage.Templates())
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions())
	credentialStore := newCredentialStoreAdapter(storage.Users())

	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, tokenGenerator, now, cfg.SessionTTL, logger)
	contactService := application.NewContactServiceWithLogger(contactRepo, eventRepo, idGenerator, now, logger)
	eventService := application.NewEventServiceWithLogger(eventRepo, contactRepo, engine, idGenerator, now, logger)
	templateService := application.NewTemplateServiceWithLogger(templateRepo, idGenerator, now, logger)
	wishService := application.NewWishServiceWithLogger(eventRepo, contactRepo, templateRepo, engine, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, logger),
		Contacts:  httptransport.NewContactHandler(contactService, logger),
		Events:    httptransport.NewEventHandler(eventService, logger),
		Templates: httptransport.NewTemplateHandler(templateService, logger),
		Wishes:    httptransport.NewWishHandler(wishService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger, httptransport.PublicPaths()...),
		},
	})

	pruner := cron.New()
	if _, err := pruner.AddFunc("15 3 * * *", func() {
		pruneCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := authService.PruneExpiredSessions(pruneCtx); err != nil {
			logger.Error("failed to prune expired sessions", "error", err)
		}
	}); err != nil {
		logger.Error("failed to schedule session pruning", "error", err)
		os.Exit(1)
	}
	pruner.Start()
	defer pruner.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reminder API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) CreateUserCredentials(ctx context.Context, creds application.UserCredentials) (application.UserCredentials, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(creds)); err != nil {
		return application.UserCredentials{}, err
	}
	stored, err := a.repo.GetUser(ctx, creds.User.ID)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type contactRepositoryAdapter struct {
	repo persistence.ContactRepository
}

func newContactRepositoryAdapter(repo persistence.ContactRepository) *contactRepositoryAdapter {
	return &contactRepositoryAdapter{repo: repo}
}

func (a *contactRepositoryAdapter) CreateContact(ctx context.Context, contact application.Contact) (application.Contact, error) {
	if err := a.repo.CreateContact(ctx, toPersistenceContact(contact)); err != nil {
		return application.Contact{}, err
	}
	stored, err := a.repo.GetContact(ctx, contact.ID)
	if err != nil {
		return application.Contact{}, err
	}
	return toApplicationContact(stored), nil
}

func (a *contactRepositoryAdapter) GetContact(ctx context.Context, id string) (application.Contact, error) {
	stored, err := a.repo.GetContact(ctx, id)
	if err != nil {
		return application.Contact{}, err
	}
	return toApplicationContact(stored), nil
}

func (a *contactRepositoryAdapter) UpdateContact(ctx context.Context, contact application.Contact) (application.Contact, error) {
	if err := a.repo.UpdateContact(ctx, toPersistenceContact(contact)); err != nil {
		return application.Contact{}, err
	}
	stored, err := a.repo.GetContact(ctx, contact.ID)
	if err != nil {
		return application.Contact{}, err
	}
	return toApplicationContact(stored), nil
}

func (a *contactRepositoryAdapter) DeleteContact(ctx context.Context, id string) error {
	return a.repo.DeleteContact(ctx, id)
}

func (a *contactRepositoryAdapter) ListContacts(ctx context.Context, userID string) ([]application.Contact, error) {
	models, err := a.repo.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	contacts := make([]application.Contact, 0, len(models))
	for _, model := range models {
		contacts = append(contacts, toApplicationContact(model))
	}
	return contacts, nil
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	stored, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *eventRepositoryAdapter) DeleteEventsForContact(ctx context.Context, contactID string) error {
	return a.repo.DeleteEventsForContact(ctx, contactID)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context, filter application.EventRepositoryFilter) ([]application.Event, error) {
	models, err := a.repo.ListEvents(ctx, persistence.EventFilter{
		UserID:       filter.UserID,
		ContactID:    filter.ContactID,
		OccursFrom:   cloneTime(filter.OccursFrom),
		OccursBefore: cloneTime(filter.OccursBefore),
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

func (a *eventRepositoryAdapter) ListEventsForContact(ctx context.Context, contactID string) ([]application.Event, error) {
	return a.ListEvents(ctx, application.EventRepositoryFilter{ContactID: contactID})
}

type templateRepositoryAdapter struct {
	repo persistence.TemplateRepository
}

func newTemplateRepositoryAdapter(repo persistence.TemplateRepository) *templateRepositoryAdapter {
	return &templateRepositoryAdapter{repo: repo}
}

func (a *templateRepositoryAdapter) CreateTemplate(ctx context.Context, template application.Template) (application.Template, error) {
	if err := a.repo.CreateTemplate(ctx, toPersistenceTemplate(template)); err != nil {
		return application.Template{}, err
	}
	stored, err := a.repo.GetTemplate(ctx, template.ID)
	if err != nil {
		return application.Template{}, err
	}
	return toApplicationTemplate(stored), nil
}

func (a *templateRepositoryAdapter) GetTemplate(ctx context.Context, id string) (application.Template, error) {
	stored, err := a.repo.GetTemplate(ctx, id)
	if err != nil {
		return application.Template{}, err
	}
	return toApplicationTemplate(stored), nil
}

func (a *templateRepositoryAdapter) DeleteTemplate(ctx context.Context, id string) error {
	return a.repo.DeleteTemplate(ctx, id)
}

func (a *templateRepositoryAdapter) ListTemplates(ctx context.Context, ownerID string) ([]application.Template, error) {
	models, err := a.repo.ListTemplates(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	templates := make([]application.Template, 0, len(models))
	for _, model := range models {
		templates = append(templates, toApplicationTemplate(model))
	}
	return templates, nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(creds application.UserCredentials) persistence.User {
	return persistence.User{
		ID:           creds.User.ID,
		Email:        creds.User.Email,
		Name:         creds.User.Name,
		PasswordHash: creds.PasswordHash,
		CreatedAt:    creds.User.CreatedAt,
		UpdatedAt:    creds.User.UpdatedAt,
	}
}

func toApplicationContact(model persistence.Contact) application.Contact {
	return application.Contact{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		Phone:     model.Phone,
		Relation:  application.Relation(model.Relation),
		Notes:     model.Notes,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceContact(contact application.Contact) persistence.Contact {
	return persistence.Contact{
		ID:        contact.ID,
		UserID:    contact.UserID,
		Name:      contact.Name,
		Phone:     contact.Phone,
		Relation:  string(contact.Relation),
		Notes:     contact.Notes,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
}

func toApplicationEvent(model persistence.Event) application.Event {
	return application.Event{
		ID:             model.ID,
		UserID:         model.UserID,
		ContactID:      model.ContactID,
		Title:          model.Title,
		Type:           application.EventType(model.Type),
		OriginalDate:   model.OriginalDate,
		Notes:          model.Notes,
		RecurringMonth: time.Month(model.RecurringMonth),
		RecurringDay:   model.RecurringDay,
		NextOccurrence: model.NextOccurrence,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:             event.ID,
		UserID:         event.UserID,
		ContactID:      event.ContactID,
		Title:          event.Title,
		Type:           string(event.Type),
		OriginalDate:   event.OriginalDate,
		Notes:          event.Notes,
		RecurringMonth: int(event.RecurringMonth),
		RecurringDay:   event.RecurringDay,
		NextOccurrence: event.NextOccurrence,
		CreatedAt:      event.CreatedAt,
		UpdatedAt:      event.UpdatedAt,
	}
}

func toApplicationTemplate(model persistence.Template) application.Template {
	return application.Template{
		ID:        model.ID,
		OwnerID:   cloneString(model.OwnerID),
		Title:     model.Title,
		Body:      model.Body,
		Category:  application.TemplateCategory(model.Category),
		EventType: model.EventType,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceTemplate(template application.Template) persistence.Template {
	return persistence.Template{
		ID:        template.ID,
		OwnerID:   cloneString(template.OwnerID),
		Title:     template.Title,
		Body:      template.Body,
		Category:  string(template.Category),
		EventType: template.EventType,
		CreatedAt: template.CreatedAt,
		UpdatedAt: template.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
