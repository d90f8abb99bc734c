package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/cmd/internal/passphrase"
	"auctionhouse/crypto"
	native "auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
	sdk "auctionhouse/sdk/auctionhouse"
)

func runKeygen(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("keygen", stderr)
	var (
		out      string
		keystore bool
	)
	fs.StringVar(&out, "out", "", "destination file")
	fs.BoolVar(&keystore, "keystore", false, "encrypt the key with a passphrase from "+passphrase.DefaultEnvVar+" or the terminal")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		return printError(stderr, errUnexpectedArgs)
	}
	if err := requireFlag("out", out); err != nil {
		return printError(stderr, err)
	}
	key, err := crypto.GenerateKeypair()
	if err != nil {
		return printError(stderr, err)
	}
	if keystore {
		var pass string
		if pass, err = passphrase.NewSource(passphrase.DefaultEnvVar).Get(); err != nil {
			return printError(stderr, err)
		}
		err = crypto.SaveToKeystore(out, key, pass)
	} else {
		err = crypto.SaveKeypair(out, key)
	}
	if err != nil {
		return printError(stderr, err)
	}
	fmt.Fprintf(stdout, "%s %s\n", key.PublicKey(), filepath.Clean(out))
	return 0
}

func runAddress(e *env, args []string) int {
	fs := newFlagSet("address", e.stderr)
	keypair := fs.String("keypair", "", "keypair file (defaults to the operator key)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := e.signer(*keypair)
	if err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintln(e.stdout, key.PublicKey())
	return 0
}

func runAirdrop(e *env, args []string) int {
	fs := newFlagSet("airdrop", e.stderr)
	var to, amount string
	fs.StringVar(&to, "to", "", "recipient address")
	fs.StringVar(&amount, "amount", "", "lamports, or whole units with a sol suffix")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	addr, err := parseKey("to", to)
	if err != nil {
		return printError(e.stderr, err)
	}
	lamports, err := sdk.ParseLamports(amount)
	if err != nil {
		return printError(e.stderr, err)
	}
	if err := e.ledger.Airdrop(e.ctx, addr, lamports); err != nil {
		return printError(e.stderr, err)
	}
	return runBalance(e, []string{"--address", addr.String()})
}

func runAirdropToken(e *env, args []string) int {
	fs := newFlagSet("airdrop-token", e.stderr)
	var owner, mint string
	var amount uint64
	fs.StringVar(&owner, "owner", "", "wallet receiving the tokens")
	fs.StringVar(&mint, "mint", "", "token mint")
	fs.Uint64Var(&amount, "amount", 1, "token units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	ownerKey, err := parseKey("owner", owner)
	if err != nil {
		return printError(e.stderr, err)
	}
	mintKey, err := parseKey("mint", mint)
	if err != nil {
		return printError(e.stderr, err)
	}
	addr, _, err := token.AssociatedAddress(ownerKey, mintKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	held := &token.Account{Mint: mintKey, Owner: ownerKey}
	if acc, err := e.ledger.Account(addr); err != nil {
		return printError(e.stderr, err)
	} else if !acc.DataIsEmpty() {
		if held, err = token.Decode(acc); err != nil {
			return printError(e.stderr, err)
		}
	}
	held.Amount += amount
	acc, err := token.NewLedgerAccount(held, e.ledger.Rent())
	if err != nil {
		return printError(e.stderr, err)
	}
	if err := e.ledger.SetAccount(e.ctx, addr, acc); err != nil {
		return printError(e.stderr, err)
	}
	return e.printJSON(map[string]interface{}{
		"tokenAccount": addr.String(),
		"owner":        ownerKey.String(),
		"mint":         mintKey.String(),
		"amount":       held.Amount,
	})
}

func runBalance(e *env, args []string) int {
	fs := newFlagSet("balance", e.stderr)
	address := fs.String("address", "", "account address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	addr, err := parseKey("address", *address)
	if err != nil {
		return printError(e.stderr, err)
	}
	lamports, err := e.ledger.Balance(addr)
	if err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintf(e.stdout, "%s %d (%s)\n", addr, lamports, sdk.FormatLamports(lamports))
	return 0
}

// houseFlags select a marketplace either by address or by the authority
// and treasury mint it was derived from.
type houseFlags struct {
	house     string
	authority string
	mint      string
}

func (h *houseFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&h.house, "house", "", "auction house address")
	fs.StringVar(&h.authority, "authority", "", "house authority (defaults to the operator key)")
	fs.StringVar(&h.mint, "treasury-mint", "", "treasury mint (defaults to native SOL)")
}

func (h houseFlags) addresses(e *env) (authority, mint solana.PublicKey, err error) {
	mint = solana.SolMint
	if strings.TrimSpace(h.mint) != "" {
		if mint, err = parseKey("treasury-mint", h.mint); err != nil {
			return
		}
	}
	if strings.TrimSpace(h.authority) != "" {
		authority, err = parseKey("authority", h.authority)
		return
	}
	operator, err := e.signer("")
	if err != nil {
		return
	}
	return operator.PublicKey(), mint, nil
}

func (e *env) resolveHouse(c *sdk.Client, h houseFlags) (*sdk.House, error) {
	if strings.TrimSpace(h.house) != "" {
		key, err := parseKey("house", h.house)
		if err != nil {
			return nil, err
		}
		return c.House(key)
	}
	authority, mint, err := h.addresses(e)
	if err != nil {
		return nil, err
	}
	return c.FindHouse(authority, mint)
}

func runHouse(e *env, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, usage())
		return 1
	}
	switch args[0] {
	case "create":
		return runHouseCreate(e, args[1:])
	case "show":
		return runHouseShow(e, args[1:])
	case "update":
		return runHouseUpdate(e, args[1:])
	case "delegate":
		return runHouseDelegate(e, args[1:], false)
	case "update-delegate":
		return runHouseDelegate(e, args[1:], true)
	case "withdraw-fee":
		return runHouseWithdraw(e, args[1:], false)
	case "withdraw-treasury":
		return runHouseWithdraw(e, args[1:], true)
	default:
		fmt.Fprintf(e.stderr, "Unknown house subcommand: %s\n", args[0])
		return 1
	}
}

func runHouseCreate(e *env, args []string) int {
	fs := newFlagSet("house create", e.stderr)
	var (
		mint, feeDest, treasuryOwner string
		bps                          uint
		signOff, changePrice         bool
	)
	fs.StringVar(&mint, "treasury-mint", "", "treasury mint (defaults to native SOL)")
	fs.StringVar(&feeDest, "fee-destination", "", "fee withdrawal destination (defaults to the authority)")
	fs.StringVar(&treasuryOwner, "treasury-owner", "", "owner of the treasury withdrawal destination")
	fs.UintVar(&bps, "fee-bps", 0, "seller fee in basis points")
	fs.BoolVar(&signOff, "requires-sign-off", false, "require the authority on every order")
	fs.BoolVar(&changePrice, "can-change-sale-price", false, "allow the authority to settle free listings at bid price")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if bps > native.MaxBasisPoints {
		return printError(e.stderr, fmt.Errorf("--fee-bps must be <= %d", native.MaxBasisPoints))
	}
	cfg := native.HouseConfig{
		SellerFeeBasisPoints: uint16(bps),
		RequiresSignOff:      signOff,
		CanChangeSalePrice:   changePrice,
	}
	var err error
	if cfg.TreasuryMint, err = parseOptionalKey("treasury-mint", mint); err != nil {
		return printError(e.stderr, err)
	}
	if cfg.FeeWithdrawalDestination, err = parseOptionalKey("fee-destination", feeDest); err != nil {
		return printError(e.stderr, err)
	}
	if cfg.TreasuryWithdrawalDestinationOwner, err = parseOptionalKey("treasury-owner", treasuryOwner); err != nil {
		return printError(e.stderr, err)
	}
	authority, err := e.signer("")
	if err != nil {
		return printError(e.stderr, err)
	}
	house, err := e.client(false).CreateHouse(e.ctx, authority, cfg)
	if err != nil {
		return printError(e.stderr, err)
	}
	e.logger.Info("auction house created", "auctionHouse", house.Key.String())
	return e.printHouse(house)
}

func (e *env) printHouse(h *sdk.House) int {
	s := h.State
	fee, err := e.ledger.Balance(s.AuctionHouseFeeAccount)
	if err != nil {
		return printError(e.stderr, err)
	}
	treasury, err := e.ledger.Balance(s.AuctionHouseTreasury)
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printJSON(map[string]interface{}{
		"auctionHouse":                  h.Key.String(),
		"authority":                     s.Authority.String(),
		"creator":                       s.Creator.String(),
		"treasuryMint":                  s.TreasuryMint.String(),
		"feeAccount":                    s.AuctionHouseFeeAccount.String(),
		"feeAccountBalance":             fee,
		"treasury":                      s.AuctionHouseTreasury.String(),
		"treasuryBalance":               treasury,
		"feeWithdrawalDestination":      s.FeeWithdrawalDestination.String(),
		"treasuryWithdrawalDestination": s.TreasuryWithdrawalDestination.String(),
		"sellerFeeBasisPoints":          s.SellerFeeBasisPoints,
		"requiresSignOff":               s.RequiresSignOff,
		"canChangeSalePrice":            s.CanChangeSalePrice,
		"hasAuctioneer":                 s.HasAuctioneer,
	})
}

func runHouseShow(e *env, args []string) int {
	fs := newFlagSet("house show", e.stderr)
	var hf houseFlags
	hf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	house, err := e.resolveHouse(e.client(false), hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printHouse(house)
}

func runHouseUpdate(e *env, args []string) int {
	fs := newFlagSet("house update", e.stderr)
	var (
		hf                    houseFlags
		newAuthority, feeDest string
		bps                   int
		signOff, changePrice  string
	)
	hf.register(fs)
	fs.StringVar(&newAuthority, "new-authority", "", "hand the house to another authority")
	fs.StringVar(&feeDest, "fee-destination", "", "new fee withdrawal destination")
	fs.IntVar(&bps, "fee-bps", -1, "new seller fee in basis points")
	fs.StringVar(&signOff, "requires-sign-off", "", "true or false")
	fs.StringVar(&changePrice, "can-change-sale-price", "", "true or false")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	var update sdk.HouseUpdate
	var err error
	if update.NewAuthority, err = parseOptionalKey("new-authority", newAuthority); err != nil {
		return printError(e.stderr, err)
	}
	if update.FeeWithdrawalDestination, err = parseOptionalKey("fee-destination", feeDest); err != nil {
		return printError(e.stderr, err)
	}
	if bps >= 0 {
		if bps > native.MaxBasisPoints {
			return printError(e.stderr, fmt.Errorf("--fee-bps must be <= %d", native.MaxBasisPoints))
		}
		v := uint16(bps)
		update.SellerFeeBasisPoints = &v
	}
	if update.RequiresSignOff, err = parseOptionalBool("requires-sign-off", signOff); err != nil {
		return printError(e.stderr, err)
	}
	if update.CanChangeSalePrice, err = parseOptionalBool("can-change-sale-price", changePrice); err != nil {
		return printError(e.stderr, err)
	}

	client := e.client(false)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	authority, err := e.signer("")
	if err != nil {
		return printError(e.stderr, err)
	}
	if house, err = client.UpdateHouse(e.ctx, house, authority, update); err != nil {
		return printError(e.stderr, err)
	}
	return e.printHouse(house)
}

func parseOptionalBool(name, raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "true", "yes", "1":
		v := true
		return &v, nil
	case "false", "no", "0":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("--%s must be true or false", name)
}

func runHouseDelegate(e *env, args []string, update bool) int {
	fs := newFlagSet("house delegate", e.stderr)
	var (
		hf                 houseFlags
		controller, scopes string
	)
	hf.register(fs)
	fs.StringVar(&controller, "controller", "", "controller address")
	fs.StringVar(&scopes, "scopes", "all", "comma separated scopes, or all")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	controllerKey, err := parseKey("controller", controller)
	if err != nil {
		return printError(e.stderr, err)
	}
	list, err := sdk.ParseScopes(scopes)
	if err != nil {
		return printError(e.stderr, err)
	}
	client := e.client(false)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	authority, err := e.signer("")
	if err != nil {
		return printError(e.stderr, err)
	}
	var ix native.Instruction
	if update {
		ix, err = native.NewUpdateAuctioneer(e.engine.Program(), house.Key, authority.PublicKey(), controllerKey, list...)
	} else {
		ix, err = native.NewDelegateAuctioneer(e.engine.Program(), house.Key, authority.PublicKey(), controllerKey, list...)
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	res, err := e.engine.Submit(e.ctx, []solana.PrivateKey{authority}, ix)
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printResult(res)
}

func runHouseWithdraw(e *env, args []string, treasury bool) int {
	fs := newFlagSet("house withdraw", e.stderr)
	var hf houseFlags
	var amount string
	hf.register(fs)
	fs.StringVar(&amount, "amount", "", "amount to withdraw")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	lamports, err := sdk.ParseLamports(amount)
	if err != nil {
		return printError(e.stderr, err)
	}
	client := e.client(false)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	authority, err := e.signer("")
	if err != nil {
		return printError(e.stderr, err)
	}
	if treasury {
		err = client.WithdrawFromTreasury(e.ctx, house, authority, lamports)
	} else {
		err = client.WithdrawFromFee(e.ctx, house, authority, lamports)
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printHouse(house)
}

func runEscrow(e *env, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, usage())
		return 1
	}
	sub := args[0]
	switch sub {
	case "deposit", "withdraw", "show":
	default:
		fmt.Fprintf(e.stderr, "Unknown escrow subcommand: %s\n", sub)
		return 1
	}
	fs := newFlagSet("escrow "+sub, e.stderr)
	var (
		hf              houseFlags
		keypair, amount string
		wallet          string
	)
	hf.register(fs)
	fs.StringVar(&keypair, "keypair", "", "wallet keypair (defaults to the operator key)")
	fs.StringVar(&amount, "amount", "", "amount to move")
	fs.StringVar(&wallet, "wallet", "", "wallet to inspect (show only)")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	client := e.client(false)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}

	var owner solana.PublicKey
	if sub == "show" && strings.TrimSpace(wallet) != "" {
		if owner, err = parseKey("wallet", wallet); err != nil {
			return printError(e.stderr, err)
		}
	} else {
		key, err := e.signer(keypair)
		if err != nil {
			return printError(e.stderr, err)
		}
		owner = key.PublicKey()
		if sub != "show" {
			lamports, err := sdk.ParseLamports(amount)
			if err != nil {
				return printError(e.stderr, err)
			}
			if sub == "deposit" {
				err = client.Deposit(e.ctx, house, key, lamports)
			} else {
				err = client.Withdraw(e.ctx, house, key, lamports)
			}
			if err != nil {
				return printError(e.stderr, err)
			}
		}
	}
	spendable, err := client.EscrowBalance(house, owner)
	if err != nil {
		return printError(e.stderr, err)
	}
	escrow, _, err := native.DeriveEscrow(e.engine.Program(), house.Key, owner)
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printJSON(map[string]interface{}{
		"wallet":    owner.String(),
		"escrow":    escrow.String(),
		"spendable": spendable,
	})
}

// orderFlags describe one side of a trade on the command line.
type orderFlags struct {
	mint         string
	tokenAccount string
	holder       string
	price        string
	size         uint64
	public       bool
}

func (o *orderFlags) register(fs *flag.FlagSet, withPublic bool) {
	fs.StringVar(&o.mint, "mint", "", "token mint")
	fs.StringVar(&o.tokenAccount, "token-account", "", "token account (defaults to the holder's associated account)")
	fs.StringVar(&o.holder, "holder", "", "owner of the token account when --token-account is omitted")
	fs.StringVar(&o.price, "price", "", "price in lamports, or whole units with a sol suffix")
	fs.Uint64Var(&o.size, "size", 1, "token units")
	if withPublic {
		fs.BoolVar(&o.public, "public", false, "match any holder of the mint")
	}
}

// order builds the order; defaultHolder owns the token account when neither
// --token-account nor --holder is given.
func (o orderFlags) order(defaultHolder solana.PublicKey) (native.Order, error) {
	var out native.Order
	var err error
	if out.TokenMint, err = parseKey("mint", o.mint); err != nil {
		return out, err
	}
	if out.Price, err = sdk.ParseLamports(o.price); err != nil {
		return out, err
	}
	out.Size = o.size
	out.Public = o.public
	if strings.TrimSpace(o.tokenAccount) != "" {
		out.TokenAccount, err = parseKey("token-account", o.tokenAccount)
		return out, err
	}
	holder := defaultHolder
	if strings.TrimSpace(o.holder) != "" {
		if holder, err = parseKey("holder", o.holder); err != nil {
			return out, err
		}
	}
	if holder.IsZero() {
		return out, nil
	}
	out.TokenAccount, _, err = token.AssociatedAddress(holder, out.TokenMint)
	return out, err
}

func runSell(e *env, args []string) int {
	return runOrder(e, "sell", args)
}

func runBuy(e *env, args []string) int {
	return runOrder(e, "buy", args)
}

func runOrder(e *env, side string, args []string) int {
	fs := newFlagSet(side, e.stderr)
	var (
		hf       houseFlags
		of       orderFlags
		keypair  string
		receipts bool
	)
	hf.register(fs)
	of.register(fs, side == "buy")
	fs.StringVar(&keypair, "keypair", "", "trader keypair (defaults to the operator key)")
	fs.BoolVar(&receipts, "receipt", false, "print a receipt in the same transaction")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	trader, err := e.signer(keypair)
	if err != nil {
		return printError(e.stderr, err)
	}
	// Sellers list their own tokens; a private bid names the holder.
	var holder solana.PublicKey
	if side == "sell" {
		holder = trader.PublicKey()
	}
	order, err := of.order(holder)
	if err != nil {
		return printError(e.stderr, err)
	}
	if side == "buy" && !order.Public && order.TokenAccount.IsZero() {
		return printError(e.stderr, fmt.Errorf("--token-account or --holder is required for a private bid"))
	}
	client := e.client(receipts)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	var ts solana.PublicKey
	if side == "sell" {
		ts, err = client.List(e.ctx, house, trader, order)
	} else {
		ts, err = client.Bid(e.ctx, house, trader, order)
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printJSON(map[string]interface{}{
		"side":       side,
		"wallet":     trader.PublicKey().String(),
		"tradeState": ts.String(),
		"price":      order.Price,
		"size":       order.Size,
	})
}

func runCancel(e *env, args []string) int {
	fs := newFlagSet("cancel", e.stderr)
	var (
		hf       houseFlags
		of       orderFlags
		keypair  string
		side     string
		receipts bool
	)
	hf.register(fs)
	of.register(fs, true)
	fs.StringVar(&keypair, "keypair", "", "trader keypair (defaults to the operator key)")
	fs.StringVar(&side, "side", "listing", "listing or bid")
	fs.BoolVar(&receipts, "receipt", false, "cancel the order's receipt in the same transaction")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	trader, err := e.signer(keypair)
	if err != nil {
		return printError(e.stderr, err)
	}
	order, err := of.order(trader.PublicKey())
	if err != nil {
		return printError(e.stderr, err)
	}
	client := e.client(receipts)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	switch side {
	case "listing":
		order.Public = false
		err = client.CancelListing(e.ctx, house, trader, order)
	case "bid":
		err = client.CancelBid(e.ctx, house, trader, order)
	default:
		return printError(e.stderr, fmt.Errorf("--side must be listing or bid"))
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintln(e.stdout, "canceled")
	return 0
}

func runExecuteSale(e *env, args []string) int {
	fs := newFlagSet("execute-sale", e.stderr)
	var (
		hf                   houseFlags
		of                   orderFlags
		keypair, buyer       string
		seller, bidPriceFlag string
		receipts             bool
	)
	hf.register(fs)
	of.register(fs, true)
	fs.StringVar(&keypair, "keypair", "", "payer keypair (defaults to the operator key)")
	fs.StringVar(&buyer, "buyer", "", "buyer wallet")
	fs.StringVar(&seller, "seller", "", "seller wallet")
	fs.StringVar(&bidPriceFlag, "bid-price", "", "price of the bid when it differs from the listing")
	fs.BoolVar(&receipts, "receipt", false, "print a purchase receipt linked to the order receipts")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	buyerKey, err := parseKey("buyer", buyer)
	if err != nil {
		return printError(e.stderr, err)
	}
	sellerKey, err := parseKey("seller", seller)
	if err != nil {
		return printError(e.stderr, err)
	}
	ask, err := of.order(sellerKey)
	if err != nil {
		return printError(e.stderr, err)
	}
	ask.Wallet = sellerKey
	ask.Public = false
	bid := ask
	bid.Wallet = buyerKey
	bid.Public = of.public
	if strings.TrimSpace(bidPriceFlag) != "" {
		if bid.Price, err = sdk.ParseLamports(bidPriceFlag); err != nil {
			return printError(e.stderr, err)
		}
	}
	payer, err := e.signer(keypair)
	if err != nil {
		return printError(e.stderr, err)
	}
	client := e.client(receipts)
	house, err := e.resolveHouse(client, hf)
	if err != nil {
		return printError(e.stderr, err)
	}
	res, err := client.ExecuteSale(e.ctx, house, payer, bid, ask)
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printResult(res)
}

func runReceipt(e *env, args []string) int {
	fs := newFlagSet("receipt", e.stderr)
	var kind, address string
	fs.StringVar(&kind, "kind", "listing", "listing, bid or purchase")
	fs.StringVar(&address, "address", "", "receipt address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	addr, err := parseKey("address", address)
	if err != nil {
		return printError(e.stderr, err)
	}
	var receipt interface{}
	switch kind {
	case "listing":
		receipt, err = e.engine.ListingReceipt(addr)
	case "bid":
		receipt, err = e.engine.BidReceipt(addr)
	case "purchase":
		receipt, err = e.engine.PurchaseReceipt(addr)
	default:
		return printError(e.stderr, fmt.Errorf("--kind must be listing, bid or purchase"))
	}
	if err != nil {
		return printError(e.stderr, err)
	}
	return e.printJSON(receipt)
}
