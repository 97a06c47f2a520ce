package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sex of an animal as registered on acquisition
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// CostCategory groups operating costs into fixed and variable spending
type CostCategory string

const (
	CostCategoryFixed     CostCategory = "Fixo"
	CostCategoryVariable  CostCategory = "Variavel"
	CostCategoryFinancial CostCategory = "Financeiro"
)

// ScheduleStatus is the payment state of a financial schedule entry
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "pendente"
	ScheduleStatusPaid    ScheduleStatus = "pago"
)

// Tenant represents the owner of a herd. Every ledger row belongs to exactly one tenant.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username string `gorm:"not null;size:50;uniqueIndex" json:"username"`
	FarmName string `gorm:"size:255" json:"farm_name"`

	// Relationships
	Animals        []Animal        `gorm:"foreignKey:TenantID" json:"animals,omitempty"`
	OperatingCosts []OperatingCost `gorm:"foreignKey:TenantID" json:"operating_costs,omitempty"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// Animal is a head of cattle identified by its ear tag within a tenant
type Animal struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index:idx_animals_tenant_deleted,priority:2" json:"deleted_at,omitempty"`

	// Tag uniqueness spans soft-deleted rows so a restored animal never collides
	TenantID         uint                `gorm:"not null;uniqueIndex:idx_animals_tenant_tag,priority:1;index:idx_animals_tenant_deleted,priority:1;index:idx_animals_tenant_sale,priority:1" json:"tenant_id"`
	Tag              string              `gorm:"not null;size:50;uniqueIndex:idx_animals_tenant_tag,priority:2" json:"tag"`
	Sex              Sex                 `gorm:"type:char(1);not null" json:"sex"`
	AcquisitionDate  time.Time           `gorm:"type:date;not null" json:"acquisition_date"`
	AcquisitionPrice decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"acquisition_price"`
	SaleDate         *time.Time          `gorm:"type:date;index:idx_animals_tenant_sale,priority:2" json:"sale_date,omitempty"`
	SalePrice        decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`

	// Relationships
	Tenant     Tenant      `gorm:"foreignKey:TenantID" json:"-"`
	Weighings  []Weighing  `gorm:"foreignKey:AnimalID" json:"weighings,omitempty"`
	Treatments []Treatment `gorm:"foreignKey:AnimalID" json:"treatments,omitempty"`
}

// TableName specifies the table name for Animal
func (Animal) TableName() string {
	return "animals"
}

// IsSold reports whether the animal has left the herd through a sale
func (a Animal) IsSold() bool {
	return a.SaleDate != nil
}

// Weighing is a single weight measurement of an animal
type Weighing struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	AnimalID uint      `gorm:"not null;index:idx_weighings_animal_date,priority:1" json:"animal_id"`
	Date     time.Time `gorm:"type:date;not null;index:idx_weighings_animal_date,priority:2" json:"date"`
	Weight   float64   `gorm:"type:decimal(10,2);not null" json:"weight"`

	Animal Animal `gorm:"foreignKey:AnimalID" json:"-"`
}

// TableName specifies the table name for Weighing
func (Weighing) TableName() string {
	return "weighings"
}

// Treatment is a medication applied to an animal. Cost is optional.
type Treatment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	AnimalID  uint                `gorm:"not null;index:idx_treatments_animal_date,priority:1" json:"animal_id"`
	AppliedOn time.Time           `gorm:"type:date;not null;index:idx_treatments_animal_date,priority:2" json:"applied_on"`
	Name      string              `gorm:"not null;size:100" json:"name"`
	Cost      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"cost"`
	Notes     string              `gorm:"type:text" json:"notes"`

	Animal Animal `gorm:"foreignKey:AnimalID" json:"-"`
}

// TableName specifies the table name for Treatment
func (Treatment) TableName() string {
	return "treatments"
}

// OperatingCost is a herd-level expense owned by the tenant, not by an animal
type OperatingCost struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TenantID    uint            `gorm:"not null;index:idx_costs_tenant_date,priority:1" json:"tenant_id"`
	Category    CostCategory    `gorm:"not null;size:20" json:"category"`
	CostType    string          `gorm:"not null;size:50" json:"cost_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date        time.Time       `gorm:"type:date;not null;index:idx_costs_tenant_date,priority:2" json:"date"`
	Description string          `gorm:"type:text" json:"description"`
}

// TableName specifies the table name for OperatingCost
func (OperatingCost) TableName() string {
	return "operating_costs"
}

// FinancialSchedule is a planned payment that becomes an OperatingCost once settled
type FinancialSchedule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TenantID    uint            `gorm:"not null;index:idx_schedules_tenant_due,priority:1" json:"tenant_id"`
	Description string          `gorm:"not null;size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate     time.Time       `gorm:"type:date;not null;index:idx_schedules_tenant_due,priority:2" json:"due_date"`
	Status      ScheduleStatus  `gorm:"not null;size:20;default:pendente" json:"status"`
}

// TableName specifies the table name for FinancialSchedule
func (FinancialSchedule) TableName() string {
	return "financial_schedules"
}

// AllModels lists every ledger table in dependency order for migrations
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&Animal{},
		&Weighing{},
		&Treatment{},
		&OperatingCost{},
		&FinancialSchedule{},
	}
}
