package auctionhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"auctionhouse/core/events"
	"auctionhouse/core/state"
	"auctionhouse/core/types"
	"auctionhouse/crypto/pda"
)

var errNilLedger = errors.New("auctionhouse: ledger not configured")

// Metrics receives settlement telemetry. observability/metrics provides the
// Prometheus implementation.
type Metrics interface {
	ObserveTransaction(outcome string, instructions int, elapsed time.Duration)
	ObserveInstruction(name, outcome string)
	ObserveSale(treasuryMint string, price, fee uint64)
}

// Result reports what a committed transaction did.
type Result struct {
	Events []*types.Event
}

// Engine applies auction house transactions to a ledger.
type Engine struct {
	ledger  *state.Ledger
	program solana.PublicKey
	emitter events.Emitter
	metrics Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	nowFn   func() int64
}

// NewEngine creates an engine over ledger with a no-op emitter, the default
// program address and the global tracer.
func NewEngine(ledger *state.Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		program: ProgramID,
		emitter: events.NoopEmitter{},
		tracer:  otel.Tracer("auctionhouse"),
		logger:  slog.Default(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// Program returns the address every derivation is rooted at.
func (e *Engine) Program() solana.PublicKey { return e.program }

// SetProgramID moves the engine to a different program address.
func (e *Engine) SetProgramID(program solana.PublicKey) {
	if !program.IsZero() {
		e.program = program
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// to a no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetMetrics attaches a telemetry sink. Nil disables it.
func (e *Engine) SetMetrics(m Metrics) { e.metrics = m }

// SetLogger replaces the engine logger. Nil restores slog.Default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetTracer replaces the tracer used for transaction spans. Nil restores
// the global tracer.
func (e *Engine) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = otel.Tracer("auctionhouse")
	}
	e.tracer = tracer
}

// SetNowFunc overrides the time source used for receipt timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Ledger exposes the underlying account store.
func (e *Engine) Ledger() *state.Ledger { return e.ledger }

// Submit builds a transaction from instructions, signs it with signers and
// processes it.
func (e *Engine) Submit(ctx context.Context, signers []solana.PrivateKey, instructions ...Instruction) (*Result, error) {
	txn := NewTransaction(instructions...)
	if err := txn.Sign(signers...); err != nil {
		return nil, err
	}
	return e.Process(ctx, txn)
}

// Process verifies the signatures on txn and applies its instructions in
// order inside one ledger transition. Either every instruction takes effect
// or none does. Events are emitted only after the transition commits.
func (e *Engine) Process(ctx context.Context, txn *Transaction) (*Result, error) {
	if e == nil || e.ledger == nil {
		return nil, errNilLedger
	}
	if txn == nil || len(txn.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "auctionhouse.Process",
		trace.WithAttributes(attribute.Int("instructions", len(txn.Instructions))))
	defer span.End()

	signers, msg, err := txn.VerifySignatures()
	if err != nil {
		e.fail(span, txn, err, started)
		return nil, err
	}
	c := &call{program: e.program, now: e.nowFn()}
	req := state.Request{Accounts: txn.Accounts(), Signers: signers, Message: msg}
	err = e.ledger.Execute(ctx, req, func(tx *state.Tx) error {
		c.tx = tx
		for i, ix := range txn.Instructions {
			if err := e.dispatch(c, ix); err != nil {
				e.observeInstruction(ix.Name(), "error")
				return fmt.Errorf("instruction %d (%s): %w", i, ix.Name(), err)
			}
			e.observeInstruction(ix.Name(), "ok")
			c.prev = ix
		}
		return nil
	})
	if err != nil {
		e.fail(span, txn, err, started)
		return nil, err
	}
	for _, evt := range c.events {
		e.emitter.Emit(auctionEvent{evt: evt})
	}
	if e.metrics != nil {
		for _, sale := range c.sales {
			e.metrics.ObserveSale(sale.treasuryMint.String(), sale.price, sale.fee)
		}
		e.metrics.ObserveTransaction("ok", len(txn.Instructions), time.Since(started))
	}
	span.SetStatus(codes.Ok, "")
	e.logger.Debug("auction house transaction committed",
		slog.Int("instructions", len(txn.Instructions)),
		slog.Int("events", len(c.events)))
	return &Result{Events: c.events}, nil
}

func (e *Engine) fail(span trace.Span, txn *Transaction, err error, started time.Time) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Int64("error_code", int64(ErrorCode(err))))
	if e.metrics != nil {
		e.metrics.ObserveTransaction("error", len(txn.Instructions), time.Since(started))
	}
	e.logger.Warn("auction house transaction rejected",
		slog.Int("instructions", len(txn.Instructions)),
		slog.Uint64("code", uint64(ErrorCode(err))),
		slog.Any("error", err))
}

func (e *Engine) observeInstruction(name, outcome string) {
	if e.metrics != nil {
		e.metrics.ObserveInstruction(name, outcome)
	}
}

func (e *Engine) dispatch(c *call, ix Instruction) error {
	switch ix := ix.(type) {
	case *CreateAuctionHouse:
		return c.createAuctionHouse(ix)
	case *UpdateAuctionHouse:
		return c.updateAuctionHouse(ix)
	case *DelegateAuctioneer:
		return c.delegateAuctioneer(ix)
	case *UpdateAuctioneer:
		return c.updateAuctioneer(ix)
	case *Deposit:
		return c.deposit(ix, nil)
	case *AuctioneerDeposit:
		return c.deposit(&ix.Deposit, &ix.AuctioneerAccounts)
	case *Withdraw:
		return c.withdraw(ix, nil)
	case *AuctioneerWithdraw:
		return c.withdraw(&ix.Withdraw, &ix.AuctioneerAccounts)
	case *Sell:
		return c.sell(ix, nil)
	case *AuctioneerSell:
		return c.sell(&ix.Sell, &ix.AuctioneerAccounts)
	case *Buy:
		return c.buy(ix, false, nil)
	case *PublicBuy:
		return c.buy(&ix.Buy, true, nil)
	case *AuctioneerBuy:
		return c.buy(&ix.Buy, false, &ix.AuctioneerAccounts)
	case *AuctioneerPublicBuy:
		return c.buy(&ix.Buy, true, &ix.AuctioneerAccounts)
	case *ExecuteSale:
		return c.executeSale(ix, nil)
	case *AuctioneerExecuteSale:
		return c.executeSale(&ix.ExecuteSale, &ix.AuctioneerAccounts)
	case *Cancel:
		return c.cancel(ix, nil)
	case *AuctioneerCancel:
		return c.cancel(&ix.Cancel, &ix.AuctioneerAccounts)
	case *WithdrawFromFee:
		return c.withdrawFromFee(ix)
	case *WithdrawFromTreasury:
		return c.withdrawFromTreasury(ix)
	case *PrintListingReceipt:
		return c.printListingReceipt(ix)
	case *CancelListingReceipt:
		return c.cancelListingReceipt(ix)
	case *PrintBidReceipt:
		return c.printBidReceipt(ix)
	case *CancelBidReceipt:
		return c.cancelBidReceipt(ix)
	case *PrintPurchaseReceipt:
		return c.printPurchaseReceipt(ix)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownInstruction, ix)
	}
}

type saleRecord struct {
	treasuryMint solana.PublicKey
	price        uint64
	fee          uint64
}

// call carries the state of one transaction while its instructions run.
type call struct {
	tx      *state.Tx
	program solana.PublicKey
	now     int64
	prev    Instruction
	events  []*types.Event
	sales   []saleRecord
}

func (c *call) emit(evt *types.Event) { c.events = append(c.events, evt) }

func (c *call) verify(seeds [][]byte, claimed solana.PublicKey, bump uint8) error {
	if err := pda.Verify(seeds, c.program, claimed, bump); err != nil {
		return fmt.Errorf("%w: %w", ErrDerivedKeyInvalid, err)
	}
	return nil
}

func (c *call) assert(seeds [][]byte, claimed solana.PublicKey) (uint8, error) {
	bump, err := pda.Assert(seeds, c.program, claimed)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDerivedKeyInvalid, err)
	}
	return bump, nil
}

func (c *call) programAuthority(key solana.PublicKey, seeds [][]byte, bump uint8) state.Authority {
	return state.ProgramAuthority(key, c.program, pda.WithBump(seeds, bump))
}

func (c *call) houseAuthority(key solana.PublicKey, house *AuctionHouse) state.Authority {
	return c.programAuthority(key, pda.AuctionHouseSeeds(house.Creator, house.TreasuryMint), house.Bump)
}

func (c *call) feeAccountAuthority(key solana.PublicKey, house *AuctionHouse) state.Authority {
	return c.programAuthority(house.AuctionHouseFeeAccount, pda.FeeAccountSeeds(key), house.FeePayerBump)
}

func (c *call) treasuryAuthority(key solana.PublicKey, house *AuctionHouse) state.Authority {
	return c.programAuthority(house.AuctionHouseTreasury, pda.TreasurySeeds(key), house.TreasuryBump)
}

// loadHouse decodes the configuration record at key and re-derives its
// address before trusting it.
func (c *call) loadHouse(key solana.PublicKey) (*AuctionHouse, error) {
	acc, err := c.tx.Get(key)
	if err != nil {
		return nil, err
	}
	house, err := DecodeAuctionHouse(acc, c.program)
	if err != nil {
		return nil, fmt.Errorf("auction house %s: %w", key, err)
	}
	if err := c.verify(pda.AuctionHouseSeeds(house.Creator, house.TreasuryMint), key, house.Bump); err != nil {
		return nil, err
	}
	return house, nil
}

func (c *call) storeHouse(key solana.PublicKey, house *AuctionHouse) error {
	return c.storeRecord(key, auctionHouseDiscriminator, house, AuctionHouseSize)
}

func (c *call) storeRecord(key solana.PublicKey, disc [8]byte, v interface{}, size int) error {
	acc, err := c.tx.Get(key)
	if err != nil {
		return err
	}
	data, err := encodeRecord(disc, v, size)
	if err != nil {
		return err
	}
	acc.Data = data
	return nil
}

// closeAccount drains a program-owned account into dest and zeroes it. The
// ledger purges it at commit, so later references in the same transaction see
// an empty account.
func (c *call) closeAccount(addr, dest solana.PublicKey) error {
	acc, err := c.tx.Get(addr)
	if err != nil {
		return err
	}
	if err := c.tx.Reassign(c.program, addr, dest, acc.Lamports); err != nil {
		return err
	}
	acc.Data = nil
	acc.Owner = solana.SystemProgramID
	return nil
}

func expectKey(field string, got, want solana.PublicKey) error {
	if !got.Equals(want) {
		return fmt.Errorf("%w: %s expected %s, got %s", ErrPublicKeyMismatch, field, want, got)
	}
	return nil
}

// checkHouseAccounts verifies the caller supplied the house's own authority
// and fee account.
func checkHouseAccounts(house *AuctionHouse, authority, feeAccount solana.PublicKey) error {
	if err := expectKey("authority", authority, house.Authority); err != nil {
		return err
	}
	return expectKey("auction_house_fee_account", feeAccount, house.AuctionHouseFeeAccount)
}
