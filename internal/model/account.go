package model

// AccountValidation contains the result of key+device validation.
type AccountValidation struct {
	AccountID    int64
	KeyID        int64
	CustomerID   string
	CustomerName string
	DeviceID     string
	KeyStatus    string
}
