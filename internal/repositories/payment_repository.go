package repositories

import (
	"context"
	"errors"

	"shikkha_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
)

type PaymentRepository interface {
	// CreateWithEnrollments writes one approved payment and its enrollment
	// batch as a single transaction. When the transaction id already has an
	// approved payment, the call is a no-op and created is false.
	CreateWithEnrollments(ctx context.Context, payment *models.PaymentRecord, enrollments []models.EnrollmentRecord) (created bool, err error)

	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// CreateWithEnrollments is the pipeline's idempotency guard and enrollment
// writer fused into one atomic operation. The payment insert carries
// ON CONFLICT (transaction_id) DO NOTHING, so two concurrent handlers
// racing on the same transaction cannot both win: the loser sees zero rows
// affected and skips the enrollment batch entirely. Because everything runs
// inside one database transaction, a failed enrollment write rolls the
// payment back too, so no approved payment can exist without its enrollments.
func (r *paymentRepository) CreateWithEnrollments(ctx context.Context, payment *models.PaymentRecord, enrollments []models.EnrollmentRecord) (bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).Create(payment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already processed by an earlier delivery or a concurrent one.
			return nil
		}
		created = true

		if len(enrollments) == 0 {
			return nil
		}

		// The deterministic userID_courseID key turns replays into no-ops
		// and never resets an existing enrollment's progress.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&enrollments).Error
	})

	return created, err
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentRecord, error) {
	var payment models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}
