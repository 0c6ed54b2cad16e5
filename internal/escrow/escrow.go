package escrow

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Client is the smart-contract escrow collaborator. Calls are best-effort
// from the conversation's perspective: failures are logged by callers and
// never fail a turn.
type Client interface {
	// RegisterShopAccount creates an escrow account for a newly created
	// shop and returns a transaction reference.
	RegisterShopAccount(ctx context.Context, shopID, community string) (string, error)

	// AllocateVouchers credits a user's community voucher balance on-chain
	// and returns a transaction reference.
	AllocateVouchers(ctx context.Context, userID, community string, amount int) (string, error)
}

// LoggingClient is the development escrow client. It records intents and
// hands out transaction references without touching a chain.
type LoggingClient struct{}

// NewLoggingClient creates the development escrow client.
func NewLoggingClient() *LoggingClient {
	return &LoggingClient{}
}

func (c *LoggingClient) RegisterShopAccount(_ context.Context, shopID, community string) (string, error) {
	ref := txRef()
	log.Printf("Escrow account registered for shop %s in %s (tx %s)", shopID, community, ref)
	return ref, nil
}

func (c *LoggingClient) AllocateVouchers(_ context.Context, userID, community string, amount int) (string, error) {
	ref := txRef()
	log.Printf("Allocated %d vouchers to %s in %s (tx %s)", amount, userID, community, ref)
	return ref, nil
}

func txRef() string {
	return "TX-" + uuid.NewString()
}
