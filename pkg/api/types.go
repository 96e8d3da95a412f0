package api

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LoginResult is the platform's answer to a credential login.
type LoginResult struct {
	SessionID string `json:"sessionId"`
	ServerURL string `json:"serverUrl"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// UserInfo describes the authenticated user, as returned by the identity
// endpoint.
type UserInfo struct {
	UserID         string `json:"user_id"`
	UserName       string `json:"username"`
	DisplayName    string `json:"display_name"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

// QueryResult holds one page of query records.
type QueryResult struct {
	TotalSize int              `json:"totalSize"`
	Done      bool             `json:"done"`
	NextURL   string           `json:"nextRecordsUrl,omitempty"`
	Records   []map[string]any `json:"records"`
}

// SaveResult reports the outcome of a record create.
type SaveResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// DescribeGlobalResult lists the objects visible to the session.
type DescribeGlobalResult struct {
	Objects []ObjectSummary `json:"sobjects"`
}

// ObjectSummary is a single entry of the global describe.
type ObjectSummary struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Custom    bool   `json:"custom"`
	Queryable bool   `json:"queryable"`
}

// ObjectDescribe is the full schema metadata for one object.
type ObjectDescribe struct {
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Custom bool            `json:"custom"`
	Fields []FieldDescribe `json:"fields"`
}

// FieldDescribe is the schema metadata for one field.
type FieldDescribe struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Length      int      `json:"length,omitempty"`
	Nillable    bool     `json:"nillable"`
	Custom      bool     `json:"custom"`
	ReferenceTo []string `json:"referenceTo,omitempty"`
}

// apiFault is the platform's JSON error envelope.
type apiFault struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Fault codes signalled by the platform.
const (
	faultInvalidSession = "INVALID_SESSION_ID"
	faultInvalidLogin   = "INVALID_LOGIN"
	faultAccessDenied   = "INSUFFICIENT_ACCESS"
)

// DecimalField extracts a currency or percent field from a query record with
// full precision. Numeric JSON values must have been decoded with
// json.Number intact, which Query guarantees.
func DecimalField(record map[string]any, field string) (decimal.Decimal, error) {
	v, ok := record[field]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("field %q absent", field)
	}
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Zero, fmt.Errorf("field %q is not numeric (got %T)", field, v)
	}
}
