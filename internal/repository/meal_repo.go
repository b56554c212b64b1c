package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/guesthouse/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MealRepository interface {
	Create(ctx context.Context, meal *models.Meal) error
	FindByID(ctx context.Context, id uint) (*models.Meal, error)
	FindAll(ctx context.Context) ([]models.Meal, error)
	Upsert(ctx context.Context, meal *models.Meal) error
}

type mealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) MealRepository {
	return &mealRepository{db: db}
}

func (r *mealRepository) Create(ctx context.Context, meal *models.Meal) error {
	return Translate(r.db.WithContext(ctx).Create(meal).Error)
}

func (r *mealRepository) FindByID(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.WithContext(ctx).First(&meal, id).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

func (r *mealRepository) FindAll(ctx context.Context) ([]models.Meal, error) {
	var meals []models.Meal
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// Upsert writes a meal from the catalog feed under the feed's id.
func (r *mealRepository) Upsert(ctx context.Context, meal *models.Meal) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "updated_at"}),
		}).Create(meal).Error
		if err != nil {
			return err
		}
		return advanceIDSequence(tx, "meals", meal.ID)
	})
	return Translate(err)
}
