// Package bootstrap builds the store, identity provider and email delivery
// path shared by the server and cronjob binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	"troop-backend/internal/config"
	"troop-backend/internal/google"
	"troop-backend/internal/identity"
	"troop-backend/internal/logger"
	"troop-backend/internal/repository"
	"troop-backend/internal/repository/firestore"
	"troop-backend/internal/repository/postgres"
	"troop-backend/internal/service"
	"troop-backend/internal/webhook"
)

// Store is the set of repositories backed by one document store.
type Store struct {
	Users         repository.UserRepository
	Requests      repository.RegistrationRequestRepository
	Contacts      repository.ContactRepository
	Notifications repository.NotificationRepository
	Settings      repository.SettingsRepository
	Close         func() error
}

// FirebaseApp returns nil when neither Firestore nor Firebase Auth is selected.
func FirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	if cfg.Store.Type != config.StoreFirestore && cfg.Auth.Provider != config.AuthFirebase {
		return nil, nil
	}
	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}
	return app, nil
}

func OpenStore(ctx context.Context, cfg *config.Config, app *firebase.App) (*Store, error) {
	switch cfg.Store.Type {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect firestore: %w", err)
		}
		fs := firestore.NewStore(client)
		logger.Info("Firestore store ready", "project", cfg.Firebase.ProjectID)
		return &Store{
			Users:         fs.UserRepository,
			Requests:      fs.RegistrationRequestRepository,
			Contacts:      fs.ContactRepository,
			Notifications: fs.NotificationRepository,
			Settings:      fs.SettingsRepository,
			Close:         fs.Close,
		}, nil

	case config.StorePostgres:
		logger.Debug("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Info("Database connection established")
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		pg := postgres.NewStore(db)
		return &Store{
			Users:         pg.UserRepository,
			Requests:      pg.RegistrationRequestRepository,
			Contacts:      pg.ContactRepository,
			Notifications: pg.NotificationRepository,
			Settings:      pg.SettingsRepository,
			Close:         pg.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
}

// Identity returns the configured provider. The local provider is also
// returned as the second value so callers can expose password sign-in.
func Identity(ctx context.Context, cfg *config.Config, app *firebase.App) (identity.Provider, *identity.LocalProvider, error) {
	if cfg.Auth.Provider == config.AuthLocal {
		seed := make([]identity.LocalAccount, 0, len(cfg.Auth.LocalUsers))
		for _, u := range cfg.Auth.LocalUsers {
			seed = append(seed, identity.LocalAccount{UID: u.UID, Email: u.Email, PasswordHash: u.PasswordHash})
		}
		local := identity.NewLocalProvider(cfg.Auth.JWTSecret, cfg.TokenTTL(), seed)
		logger.Warn("Using local identity provider", "accounts", len(seed))
		return local, local, nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize firebase auth: %w", err)
	}
	return identity.NewFirebaseProvider(client), nil, nil
}

// Deliverer picks the email delivery path named by cfg.Email.Delivery.
func Deliverer(ctx context.Context, cfg *config.Config, hook *webhook.Client) (service.EmailDeliverer, error) {
	switch cfg.Email.Delivery {
	case config.DeliveryWebhook:
		return hook, nil
	case config.DeliverySheets:
		return google.NewSheetsClient(ctx, cfg.Google.APIKey, cfg.Google.SheetID, cfg.Google.EmailQueueRange)
	case config.DeliverySendGrid:
		return service.NewSendGridDeliverer(cfg.Email.SendGridAPIKey, cfg.Email.From, cfg.Email.FromName), nil
	case config.DeliveryNoop:
		return service.NewNoopDeliverer(), nil
	}
	return nil, fmt.Errorf("unsupported email delivery: %s", cfg.Email.Delivery)
}

// Webhook returns nil when no URL is configured.
func Webhook(cfg *config.Config) *webhook.Client {
	if cfg.Webhook.URL == "" {
		return nil
	}
	return webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Token, cfg.WebhookTimeout())
}
