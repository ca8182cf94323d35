package amqp

import (
	"encoding/json"
	"time"
)

// Expense sources carried in ExpenseAddedMessage.
const (
	SourceCLI  = "cli"
	SourceMail = "mail"
)

// ExpenseAddedMessage notifies downstream consumers that an expense was
// appended to the ledger.
type ExpenseAddedMessage struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseAddedMessage creates a new expense-added message.
func NewExpenseAddedMessage(id int64, date, description, amount, source string) *ExpenseAddedMessage {
	return &ExpenseAddedMessage{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      amount,
		Source:      source,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseAddedMessageFromJSON creates a message from JSON bytes
func ExpenseAddedMessageFromJSON(data []byte) (*ExpenseAddedMessage, error) {
	var msg ExpenseAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
