package repository

import (
	"time"

	"gorm.io/gorm"
)

// Every read of the ledger goes through one of these scopes. Tables that do not
// carry tenant_id reach it through their animal, which must not be soft-deleted.

func animalsOfTenant(tenantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("animals.tenant_id = ?", tenantID)
	}
}

func activeAnimals(db *gorm.DB) *gorm.DB {
	return db.Where("animals.sale_date IS NULL")
}

func soldAnimals(db *gorm.DB) *gorm.DB {
	return db.Where("animals.sale_date IS NOT NULL")
}

// throughAnimal joins a child table to a live animal of the tenant
func throughAnimal(table string, tenantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN animals ON animals.id = "+table+".animal_id AND animals.deleted_at IS NULL").
			Where("animals.tenant_id = ?", tenantID)
	}
}

func operatingCostsOfTenant(tenantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("operating_costs.tenant_id = ?", tenantID)
	}
}

func schedulesOfTenant(tenantID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("financial_schedules.tenant_id = ?", tenantID)
	}
}

// withinDates bounds a date column; zero bounds are open
func withinDates(column string, r DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !r.From.IsZero() {
			db = db.Where(column+" >= ?", dateOnly(r.From))
		}
		if !r.To.IsZero() {
			db = db.Where(column+" <= ?", dateOnly(r.To))
		}
		return db
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
