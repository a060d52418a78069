package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/apperrors"
	"wallet-ledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionStore persists transaction records. Methods taking a *gorm.DB
// are meant to run on the tx handed out by Ledger.WithWallet.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// TransactionFilter narrows ListByUser.
type TransactionFilter struct {
	Type   models.TransactionType
	Action models.TransactionAction
	Status models.TransactionStatus
	Page   int
	Limit  int
}

// Normalize applies the default page and limit bounds.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// NewReference returns TXN<unix-ms><6 upper alnum>.
func NewReference() string {
	return "TXN" + timedSuffix(time.Now())
}

// NewOrderNumber returns the reference used as the crypto order number.
func NewOrderNumber() string {
	return "CRYPTO" + timedSuffix(time.Now())
}

func timedSuffix(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d%s", now.UnixMilli(), strings.ToUpper(id[:6]))
}

// Create inserts t. A reused reference or invoice id yields ErrConflict.
func (s *TransactionStore) Create(tx *gorm.DB, t *models.WalletTransaction) error {
	if t.Reference == "" {
		t.Reference = NewReference()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}

	var count int64
	if err := tx.Model(&models.WalletTransaction{}).Where("reference = ?", t.Reference).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("reference %s already used: %w", t.Reference, apperrors.ErrConflict)
	}

	if err := tx.Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("transaction %s: %w", t.Reference, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) FindByID(ctx context.Context, id uint) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := s.db.WithContext(ctx).First(&t, id).Error
	return found(&t, err, "transaction %d", id)
}

// FindOwned is FindByID limited to userID's transactions; another user's
// transaction reads as not found.
func (s *TransactionStore) FindOwned(ctx context.Context, id, userID uint) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&t, id).Error
	return found(&t, err, "transaction %d", id)
}

// FindByInvoiceID looks a crypto payment up by the gateway's invoice id.
func (s *TransactionStore) FindByInvoiceID(ctx context.Context, invoiceID string) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := s.db.WithContext(ctx).Where("crypto_invoice_id = ?", invoiceID).First(&t).Error
	return found(&t, err, "invoice %s", invoiceID)
}

// FindByOrderNumber scopes the lookup to userID unless it is 0.
func (s *TransactionStore) FindByOrderNumber(ctx context.Context, orderNumber string, userID uint) (*models.WalletTransaction, error) {
	q := s.db.WithContext(ctx).Where("crypto_order_number = ?", orderNumber)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var t models.WalletTransaction
	err := q.First(&t).Error
	return found(&t, err, "crypto payment %s", orderNumber)
}

// Reload reads t again inside tx so status checks see committed state.
func (s *TransactionStore) Reload(tx *gorm.DB, id uint) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := tx.First(&t, id).Error
	return found(&t, err, "transaction %d", id)
}

// ListByUser returns a page of the user's transactions, newest first, and the total count.
func (s *TransactionStore) ListByUser(ctx context.Context, userID uint, f TransactionFilter) ([]models.WalletTransaction, int64, error) {
	f.Normalize()
	q := s.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.WalletTransaction
	err := q.Order("date DESC").Order("id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// TransactionStat is the count and amount sum of one group.
type TransactionStat struct {
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// TransactionStats groups a user's transactions by status and by type.
type TransactionStats struct {
	ByStatus map[models.TransactionStatus]TransactionStat `json:"statusStats"`
	ByType   map[models.TransactionType]TransactionStat   `json:"typeStats"`
}

type statRow struct {
	Grp         string
	Count       int64
	TotalAmount decimal.Decimal
}

// Stats aggregates the user's transactions in the database.
func (s *TransactionStore) Stats(ctx context.Context, userID uint) (*TransactionStats, error) {
	group := func(column string) ([]statRow, error) {
		var rows []statRow
		err := s.db.WithContext(ctx).Model(&models.WalletTransaction{}).
			Select(column+" AS grp, COUNT(*) AS count, SUM(amount) AS total_amount").
			Where("user_id = ?", userID).
			Group(column).
			Scan(&rows).Error
		return rows, err
	}

	byStatus, err := group("status")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions by status: %w", err)
	}
	byType, err := group("transaction_type")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transactions by type: %w", err)
	}

	stats := &TransactionStats{
		ByStatus: make(map[models.TransactionStatus]TransactionStat, len(byStatus)),
		ByType:   make(map[models.TransactionType]TransactionStat, len(byType)),
	}
	// sqlite sums decimals as floats
	for _, r := range byStatus {
		stats.ByStatus[models.TransactionStatus(r.Grp)] = TransactionStat{Count: r.Count, TotalAmount: r.TotalAmount.Round(models.MoneyScale)}
	}
	for _, r := range byType {
		stats.ByType[models.TransactionType(r.Grp)] = TransactionStat{Count: r.Count, TotalAmount: r.TotalAmount.Round(models.MoneyScale)}
	}
	return stats, nil
}

// ListExpiredPending returns pending crypto payments whose invoice expired before now.
func (s *TransactionStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.WalletTransaction, error) {
	var list []models.WalletTransaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND action = ? AND crypto_expires_at IS NOT NULL AND crypto_expires_at < ?",
			models.TransactionStatusPending, models.TransactionActionCryptoPayment, now).
		Order("crypto_expires_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// Transition moves t from pending to status. The update only matches a
// pending row, so a concurrent or repeated transition gets ErrInvalidState.
func (s *TransactionStore) Transition(tx *gorm.DB, t *models.WalletTransaction, status models.TransactionStatus, description string, completedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":      status,
		"description": description,
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}

	res := tx.Model(&models.WalletTransaction{}).
		Where("id = ? AND status = ?", t.ID, models.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("transaction %s: %w", t.Reference, apperrors.ErrInvalidState)
	}

	t.Status = status
	t.Description = description
	t.CompletedAt = completedAt
	return nil
}

// AuditUpdate carries the gateway-reported fields of a webhook delivery.
type AuditUpdate struct {
	TxnID          string
	Confirmations  *int
	ActualAmount   *decimal.Decimal
	ActualCurrency string
	Payload        []byte
}

// SaveAudit writes the gateway audit fields regardless of status.
func (s *TransactionStore) SaveAudit(tx *gorm.DB, t *models.WalletTransaction, a AuditUpdate) error {
	updates := map[string]interface{}{}
	if a.Confirmations != nil {
		updates["crypto_confirmations"] = *a.Confirmations
		t.CryptoConfirmations = *a.Confirmations
	}
	if a.TxnID != "" {
		updates["crypto_txn_id"] = a.TxnID
		t.CryptoTxnID = a.TxnID
	}
	if a.ActualAmount != nil {
		updates["crypto_actual_amount"] = *a.ActualAmount
		d := *a.ActualAmount
		t.CryptoActualAmount = &d
	}
	if a.ActualCurrency != "" {
		updates["crypto_actual_currency"] = a.ActualCurrency
		t.CryptoActualCurrency = a.ActualCurrency
	}
	if len(a.Payload) > 0 {
		updates["gateway_payload"] = datatypes.JSON(a.Payload)
		t.GatewayPayload = datatypes.JSON(a.Payload)
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&models.WalletTransaction{}).Where("id = ?", t.ID).Updates(updates).Error
}

func found(t *models.WalletTransaction, err error, format string, args ...interface{}) (*models.WalletTransaction, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf(format+": %w", append(args, apperrors.ErrNotFound)...)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
