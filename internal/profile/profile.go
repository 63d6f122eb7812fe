// =============================================================================
// SAP Account Items Updater - Transaction Profile
// =============================================================================
//
// A Transaction Profile is a static descriptor of one supported account
// domain. The two line item transactions (FBL3N for general ledger accounts,
// FBL5N for customer sub-ledger accounts) present near-identical screens
// that differ only in technical field names and in the account identifier
// length. One parametrized engine drives both; the profile carries the
// per-domain differences.
//
// DOMAIN DETECTION:
//   General ledger accounts have 8 digits, customer accounts have 7.
//   A batch is classified by the uniform digit length of all its account
//   identifiers. A batch mixing both lengths is a hard input error.
//
// =============================================================================

package profile

import "errors"

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMixedAccountTypes is returned when one batch contains both 7-digit
	// customer accounts and 8-digit G/L accounts.
	ErrMixedAccountTypes = errors.New("cannot combine customer and G/L accounts in one batch")

	// ErrUnknownAccountType is returned when the account digit length maps
	// to neither supported domain.
	ErrUnknownAccountType = errors.New("account numbers match neither customer (7 digits) nor G/L (8 digits) accounts")
)

// =============================================================================
// PROFILE STRUCTURE
// =============================================================================

// Kind identifies one of the two supported account domains.
type Kind string

const (
	// GeneralLedger selects the FBL3N transaction (G/L accounts).
	GeneralLedger Kind = "general_ledger"

	// Customer selects the FBL5N transaction (customer sub-ledger accounts).
	Customer Kind = "customer"
)

// Profile holds the technical names the engine needs to drive one account
// domain. Pure data; all behavior lives in the engine.
type Profile struct {
	// Kind is the account domain this profile describes.
	Kind Kind

	// TransactionCode is the transaction opened when the engine binds.
	TransactionCode string

	// AccountDigits is the identifier length used for domain detection.
	AccountDigits int

	// TextField is the technical name of the editable item text field.
	TextField string

	// AssignmentField is the technical name of the editable assignment
	// field. On some sub-ledger screens the field is entirely absent, so
	// its presence is probed before writing.
	AssignmentField string

	// TextColumn and AssignmentColumn are the grid column names holding
	// the current item values.
	TextColumn       string
	AssignmentColumn string

	// AccountPickerButton opens the multi-value picker for the account
	// select-option on the main selection screen.
	AccountPickerButton string

	// CompanyCodeField is the company code field in plain selection mode;
	// WorklistCompanyCodeField is its location when worklist mode is on.
	// The engine tolerates either, whichever is present.
	CompanyCodeField         string
	WorklistCompanyCodeField string

	// WorklistField holds the worklist name when worklist mode is active.
	// Its presence doubles as the worklist-mode indicator.
	WorklistField string

	// LayoutField selects the named column layout for the result grid.
	LayoutField string
}

// =============================================================================
// PROFILE VARIANTS
// =============================================================================

// generalLedger is the FBL3N descriptor.
var generalLedger = Profile{
	Kind:                     GeneralLedger,
	TransactionCode:          "FBL3N",
	AccountDigits:            8,
	TextField:                "BSEG-SGTXT",
	AssignmentField:          "BSEG-ZUONR",
	TextColumn:               "SGTXT",
	AssignmentColumn:         "ZUONR",
	AccountPickerButton:      "%_SD_SAKNR_%_APP_%-VALU_PUSH",
	CompanyCodeField:         "SD_BUKRS-LOW",
	WorklistCompanyCodeField: "SO_WLBUK-LOW",
	WorklistField:            "PA_WLSAK",
	LayoutField:              "PA_VARI",
}

// customer is the FBL5N descriptor.
var customer = Profile{
	Kind:                     Customer,
	TransactionCode:          "FBL5N",
	AccountDigits:            7,
	TextField:                "BSEG-SGTXT",
	AssignmentField:          "BSEG-ZUONR",
	TextColumn:               "SGTXT",
	AssignmentColumn:         "ZUONR",
	AccountPickerButton:      "%_DD_KUNNR_%_APP_%-VALU_PUSH",
	CompanyCodeField:         "DD_BUKRS-LOW",
	WorklistCompanyCodeField: "SO_WLBUK-LOW",
	WorklistField:            "PA_WLKUN",
	LayoutField:              "PA_VARI",
}

// =============================================================================
// SELECTION FUNCTIONS
// =============================================================================

// ForKind returns the profile for an explicitly named account domain.
func ForKind(kind Kind) (Profile, error) {
	switch kind {
	case GeneralLedger:
		return generalLedger, nil
	case Customer:
		return customer, nil
	}
	return Profile{}, ErrUnknownAccountType
}

// Detect classifies a batch of account identifiers by digit length and
// returns the matching profile.
//
// RETURNS:
//   - ErrMixedAccountTypes if the identifiers mix two different lengths.
//   - ErrUnknownAccountType if the uniform length maps to no domain.
func Detect(accounts []string) (Profile, error) {
	lengths := make(map[int]struct{})
	for _, acc := range accounts {
		lengths[len(acc)] = struct{}{}
	}

	if len(lengths) > 1 {
		return Profile{}, ErrMixedAccountTypes
	}

	for length := range lengths {
		switch length {
		case customer.AccountDigits:
			return customer, nil
		case generalLedger.AccountDigits:
			return generalLedger, nil
		}
	}

	return Profile{}, ErrUnknownAccountType
}
