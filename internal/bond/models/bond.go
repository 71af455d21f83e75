package models

import (
	"strings"
	"time"

	"fidelis/pkg/domain"
	dErrors "fidelis/pkg/domain-errors"
)

// Bond is one fidelity-bond instrument tied to one person.
//
// Invariants:
//   - Status and days-remaining are never persisted; every read derives them
//     from the two dates via internal/bond/status.
//   - Bonds are never hard-deleted without a DELETE history record and
//     release of owned documents (enforced by the service, not here).
//   - Monetary amounts stay as text: the upstream system records them as
//     entered, including formatting quirks this service must not normalize
//     away on storage.
type Bond struct {
	ID domain.BondID `json:"id"`

	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`

	Rank        string `json:"rank"`
	Designation string `json:"designation"`
	UnitOffice  string `json:"unit_office"`

	MCA          string `json:"mca"`
	AmountOfBond string `json:"amount_of_bond"`
	BondPremium  string `json:"bond_premium"`

	RiskNo             string `json:"risk_no"`
	EffectiveDate      string `json:"effective_date"`
	DateOfCancellation string `json:"date_of_cancellation"`

	ContactNo string `json:"contact_no"`
	Remark    string `json:"remark"`

	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Input carries the caller-editable fields for create and update.
type Input struct {
	LastName   string `json:"last_name"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`

	Rank        string `json:"rank"`
	Designation string `json:"designation"`
	UnitOffice  string `json:"unit_office"`

	MCA          string `json:"mca"`
	AmountOfBond string `json:"amount_of_bond"`
	BondPremium  string `json:"bond_premium"`

	RiskNo             string `json:"risk_no"`
	EffectiveDate      string `json:"effective_date"`
	DateOfCancellation string `json:"date_of_cancellation"`

	ContactNo string `json:"contact_no"`
	Remark    string `json:"remark"`
}

// Validate checks the required fields.
func (in Input) Validate() error {
	if strings.TrimSpace(in.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "last name is required")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first name is required")
	}
	if strings.TrimSpace(in.Rank) == "" {
		return dErrors.New(dErrors.CodeValidation, "rank is required")
	}
	return nil
}

// Descriptive field names as they appear in history diffs, export columns,
// and spreadsheet headers. One catalog so all three stay in sync.
const (
	FieldLastName           = "last_name"
	FieldFirstName          = "first_name"
	FieldMiddleName         = "middle_name"
	FieldRank               = "rank"
	FieldDesignation        = "designation"
	FieldUnitOffice         = "unit_office"
	FieldMCA                = "mca"
	FieldAmountOfBond       = "amount_of_bond"
	FieldBondPremium        = "bond_premium"
	FieldRiskNo             = "risk_no"
	FieldEffectiveDate      = "effective_date"
	FieldDateOfCancellation = "date_of_cancellation"
	FieldContactNo          = "contact_no"
	FieldRemark             = "remark"
)

// FieldNames lists the descriptive fields in stable order. Identifier and
// timestamp bookkeeping fields are deliberately absent: they never diff.
var FieldNames = []string{
	FieldLastName,
	FieldFirstName,
	FieldMiddleName,
	FieldRank,
	FieldDesignation,
	FieldUnitOffice,
	FieldMCA,
	FieldAmountOfBond,
	FieldBondPremium,
	FieldRiskNo,
	FieldEffectiveDate,
	FieldDateOfCancellation,
	FieldContactNo,
	FieldRemark,
}

// Fields returns the descriptive fields as a name→value snapshot.
func (b *Bond) Fields() map[string]string {
	return map[string]string{
		FieldLastName:           b.LastName,
		FieldFirstName:          b.FirstName,
		FieldMiddleName:         b.MiddleName,
		FieldRank:               b.Rank,
		FieldDesignation:        b.Designation,
		FieldUnitOffice:         b.UnitOffice,
		FieldMCA:                b.MCA,
		FieldAmountOfBond:       b.AmountOfBond,
		FieldBondPremium:        b.BondPremium,
		FieldRiskNo:             b.RiskNo,
		FieldEffectiveDate:      b.EffectiveDate,
		FieldDateOfCancellation: b.DateOfCancellation,
		FieldContactNo:          b.ContactNo,
		FieldRemark:             b.Remark,
	}
}

// Apply copies the input fields onto the bond and bumps UpdatedAt.
func (b *Bond) Apply(in Input, now time.Time) {
	b.LastName = in.LastName
	b.FirstName = in.FirstName
	b.MiddleName = in.MiddleName
	b.Rank = in.Rank
	b.Designation = in.Designation
	b.UnitOffice = in.UnitOffice
	b.MCA = in.MCA
	b.AmountOfBond = in.AmountOfBond
	b.BondPremium = in.BondPremium
	b.RiskNo = in.RiskNo
	b.EffectiveDate = in.EffectiveDate
	b.DateOfCancellation = in.DateOfCancellation
	b.ContactNo = in.ContactNo
	b.Remark = in.Remark
	b.UpdatedAt = now
}

// New constructs a bond from validated input with server timestamps.
func New(id domain.BondID, in Input, now time.Time) *Bond {
	b := &Bond{ID: id, CreatedAt: now}
	b.Apply(in, now)
	return b
}
