package refresh

import (
	"encoding/json"
	"fmt"
	"time"
)

// Tables named in change messages.
const (
	TableTransactions    = "transactions"
	TableClassifications = "transaction_classifications"
	TableFutureEntries   = "future_entries"
	TableDRELines        = "dre_line_configurations"
	TableHierarchy       = "commitments"
)

// ChangeMessage announces a write to one of a company's tables.
type ChangeMessage struct {
	CompanyID string    `json:"company_id"`
	Table     string    `json:"table"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage stamps a message with the current time.
func NewChangeMessage(companyID, table, op string) ChangeMessage {
	return ChangeMessage{CompanyID: companyID, Table: table, Op: op, Timestamp: time.Now().UTC()}
}

// ToJSON encodes the message.
func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message; a company id is required.
func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var m ChangeMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ChangeMessage{}, err
	}
	if m.CompanyID == "" {
		return ChangeMessage{}, fmt.Errorf("change message without company id")
	}
	return m, nil
}
