package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/common-repository/vatomi/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/login).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над локальными аккаунтами.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByEmail находит пользователя по email (без учёта регистра).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByLogin находит пользователя по логину.
	UserByLogin(ctx context.Context, login string) (*models.User, error)
	// LoginExists сообщает, занят ли логин.
	LoginExists(ctx context.Context, login string) (bool, error)
	// UpdateUserName обновляет имя и фамилию.
	UpdateUserName(ctx context.Context, id uuid.UUID, firstName, lastName string) error
}

// ProfileStorage хранит поля пользователя, относящиеся к маркетплейсу.
type ProfileStorage interface {
	// Profile возвращает профиль маркетплейса; ErrNotFound, если его нет.
	Profile(ctx context.Context, userID uuid.UUID) (*models.MarketplaceProfile, error)
	// SaveTokens записывает токены (upsert). Пустые значения не затирают сохранённые.
	SaveTokens(ctx context.Context, userID uuid.UUID, tok models.TokenSet) error
	// SaveProfile записывает имя пользователя и данные аккаунта (upsert).
	SaveProfile(ctx context.Context, userID uuid.UUID, username string, account json.RawMessage) error
}

// LicenseStorage выполняет операции над записями лицензий.
type LicenseStorage interface {
	// UpsertLicense создаёт или обновляет запись по (purchase_code, user_id).
	// ActivatedSite при обновлении не трогается. Возвращает ID записи.
	UpsertLicense(ctx context.Context, l *models.License) (int64, error)
	// LicenseByID находит запись по ID.
	LicenseByID(ctx context.Context, id int64) (*models.License, error)
	// LicensesByUser возвращает все записи пользователя.
	LicensesByUser(ctx context.Context, userID uuid.UUID) ([]models.License, error)
	// LicensesByUserItem возвращает записи пользователя для товара.
	LicensesByUserItem(ctx context.Context, userID uuid.UUID, itemID string) ([]models.License, error)
	// LicenseActivatedOn находит запись (user, item), активированную ровно на site.
	LicenseActivatedOn(ctx context.Context, userID uuid.UUID, itemID, site string) (*models.License, error)
	// LicenseForActivation находит запись (user, item, code), у которой сайт не задан или равен site.
	LicenseForActivation(ctx context.Context, userID uuid.UUID, itemID, code, site string) (*models.License, error)
	// ActivatedLicense находит активированную запись (user, code, item).
	ActivatedLicense(ctx context.Context, userID uuid.UUID, code, itemID string) (*models.License, error)
	// LicenseBySite находит запись (code, item), активированную на одном из sites.
	LicenseBySite(ctx context.Context, code, itemID string, sites []string) (*models.License, error)
	// SetActivatedSite выставляет сайт активации; пустая строка сбрасывает его.
	SetActivatedSite(ctx context.Context, id int64, site string) error
	// SearchLicenses — административный поиск по коду, товару, сайту и имени покупателя.
	SearchLicenses(ctx context.Context, f models.LicenseFilter) ([]LicenseRow, int, error)
}

// LicenseRow — запись лицензии вместе с именем покупателя на маркетплейсе.
type LicenseRow struct {
	License  models.License
	Username string
}

// GateStorage выполняет операции над продуктами поддержки.
type GateStorage interface {
	// Gates возвращает все продукты.
	Gates(ctx context.Context) ([]models.ProductGate, error)
	// GateByID находит продукт по ID.
	GateByID(ctx context.Context, id int64) (*models.ProductGate, error)
	// SaveGate создаёт продукт.
	SaveGate(ctx context.Context, g *models.ProductGate) error
	// UpdateGate обновляет продукт.
	UpdateGate(ctx context.Context, g *models.ProductGate) error
	// GateItemIDs возвращает ID товаров маркетплейса, уже привязанных к продуктам.
	GateItemIDs(ctx context.Context) ([]string, error)
}

// SettingsStorage — хранилище настроек ключ/значение.
type SettingsStorage interface {
	// Settings возвращает все сохранённые пары.
	Settings(ctx context.Context) (map[string]string, error)
	// SaveSettings записывает пары (upsert) одной транзакцией.
	SaveSettings(ctx context.Context, kv map[string]string) error
}

// AuditStorage — журнал действий.
type AuditStorage interface {
	// AppendAudit добавляет запись.
	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	// AuditEntries возвращает записи по фильтру, новые первыми, и общее число.
	AuditEntries(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, int, error)
	// PruneAudit удаляет не более limit самых старых записей, созданных раньше before.
	PruneAudit(ctx context.Context, before time.Time, limit int) (int64, error)
}

// Storage задаёт контракт работы с основной БД.
type Storage interface {
	UserStorage
	ProfileStorage
	LicenseStorage
	GateStorage
	SettingsStorage
	AuditStorage
	Ping(ctx context.Context) error
	Close()
}
