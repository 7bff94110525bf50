// AngelaMos | 2026
// memory.go

package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/flagnft-backend/internal/clock"
	"github.com/carterperez-dev/flagnft-backend/internal/core"
)

var errReadOnly = errors.New("write in read-only transaction")

// Memory keeps every table in process. Writers are serialized by a single
// mutex and work on a copy of the state that replaces the live state only
// when the closure succeeds, so a failed Update leaves nothing behind.
type Memory struct {
	mu    sync.RWMutex
	state *memState
	clock clock.Clock
}

type memState struct {
	users      map[int64]User
	flags      map[int64]Flag
	interests  []FlagInterest
	ownerships  []FlagOwnership
	connections []Connection
	auctions    map[int64]Auction
	bids        []Bid
	seq         int64
}

func NewMemory(clk clock.Clock) *Memory {
	return &Memory{
		clock: clk,
		state: &memState{
			users:    make(map[int64]User),
			flags:    make(map[int64]Flag),
			auctions: make(map[int64]Auction),
		},
	}
}

func (m *Memory) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(&memTx{s: m.state, clock: m.clock, readOnly: true})
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.clone()
	if err := fn(&memTx{s: draft, clock: m.clock}); err != nil {
		return err
	}

	m.state = draft
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close() error {
	return nil
}

func (s *memState) clone() *memState {
	return &memState{
		users:       maps.Clone(s.users),
		flags:       maps.Clone(s.flags),
		interests:   slices.Clone(s.interests),
		ownerships:  slices.Clone(s.ownerships),
		connections: slices.Clone(s.connections),
		auctions:    maps.Clone(s.auctions),
		bids:        slices.Clone(s.bids),
		seq:         s.seq,
	}
}

func (s *memState) nextID() int64 {
	s.seq++
	return s.seq
}

type memTx struct {
	s        *memState
	clock    clock.Clock
	readOnly bool
}

func (t *memTx) writable(op string) error {
	if t.readOnly {
		return fmt.Errorf("%s: %w", op, errReadOnly)
	}
	return nil
}

func (t *memTx) Stats(_ context.Context) (*Stats, error) {
	stats := &Stats{
		Users: len(t.s.users),
		Flags: len(t.s.flags),
		Bids:  len(t.s.bids),
	}

	for _, f := range t.s.flags {
		if f.PairComplete {
			stats.CompletePairs++
		}
	}

	for _, a := range t.s.auctions {
		switch a.Status {
		case AuctionActive:
			stats.ActiveAuctions++
		case AuctionClosed:
			stats.ClosedAuctions++
		case AuctionCancelled:
			stats.CancelledAuctions++
		}
	}

	return stats, nil
}

func (t *memTx) EnsureUser(ctx context.Context, wallet string) (*User, error) {
	if u, err := t.GetUserByWallet(ctx, wallet); err == nil {
		return u, nil
	}
	if err := t.writable("ensure user"); err != nil {
		return nil, err
	}

	now := t.clock.Now()
	u := User{
		ID:            t.s.nextID(),
		WalletAddress: wallet,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	t.s.users[u.ID] = u

	return &u, nil
}

func (t *memTx) GetUserByID(_ context.Context, id int64) (*User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, errNotFound("get user")
	}
	return &u, nil
}

func (t *memTx) GetUserByWallet(_ context.Context, wallet string) (*User, error) {
	for _, u := range t.s.users {
		if u.WalletAddress == wallet {
			return &u, nil
		}
	}
	return nil, errNotFound("get user by wallet")
}

func (t *memTx) UpdateUsername(
	_ context.Context,
	id int64,
	username *string,
) (*User, error) {
	if err := t.writable("update username"); err != nil {
		return nil, err
	}

	u, ok := t.s.users[id]
	if !ok {
		return nil, errNotFound("update username")
	}

	u.Username = username
	u.UpdatedAt = t.clock.Now()
	t.s.users[id] = u

	return &u, nil
}

func (t *memTx) AddReputation(_ context.Context, id int64, delta int) error {
	if err := t.writable("add reputation"); err != nil {
		return err
	}

	u, ok := t.s.users[id]
	if !ok {
		return errNotFound("add reputation")
	}

	u.ReputationScore += delta
	u.UpdatedAt = t.clock.Now()
	t.s.users[id] = u

	return nil
}

func (t *memTx) ListUsersByReputation(_ context.Context, limit int) ([]User, error) {
	users := slices.Collect(maps.Values(t.s.users))
	sort.Slice(users, func(i, j int) bool {
		if users[i].ReputationScore != users[j].ReputationScore {
			return users[i].ReputationScore > users[j].ReputationScore
		}
		return users[i].ID < users[j].ID
	})

	if limit >= 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (t *memTx) CreateConnection(_ context.Context, conn *Connection) error {
	if err := t.writable("create connection"); err != nil {
		return err
	}
	if _, ok := t.s.users[conn.FollowerID]; !ok {
		return errNotFound("create connection")
	}
	if _, ok := t.s.users[conn.FollowingID]; !ok {
		return errNotFound("create connection")
	}

	for _, c := range t.s.connections {
		if c.FollowerID == conn.FollowerID && c.FollowingID == conn.FollowingID {
			return fmt.Errorf("create connection: %w", core.ErrDuplicateKey)
		}
	}

	conn.ID = t.s.nextID()
	conn.CreatedAt = t.clock.Now()
	t.s.connections = append(t.s.connections, *conn)

	return nil
}

func (t *memTx) DeleteConnection(
	_ context.Context,
	followerID, followingID int64,
) (bool, error) {
	if err := t.writable("delete connection"); err != nil {
		return false, err
	}

	before := len(t.s.connections)
	t.s.connections = slices.DeleteFunc(t.s.connections, func(c Connection) bool {
		return c.FollowerID == followerID && c.FollowingID == followingID
	})

	return len(t.s.connections) < before, nil
}

func (t *memTx) ListFollowers(_ context.Context, userID int64) ([]User, error) {
	var out []User
	for _, c := range t.s.connections {
		if c.FollowingID == userID {
			out = append(out, t.s.users[c.FollowerID])
		}
	}
	return out, nil
}

func (t *memTx) ListFollowing(_ context.Context, userID int64) ([]User, error) {
	var out []User
	for _, c := range t.s.connections {
		if c.FollowerID == userID {
			out = append(out, t.s.users[c.FollowingID])
		}
	}
	return out, nil
}

func (t *memTx) CountConnections(_ context.Context, userID int64) (ConnectionCounts, error) {
	var counts ConnectionCounts
	for _, c := range t.s.connections {
		if c.FollowingID == userID {
			counts.Followers++
		}
		if c.FollowerID == userID {
			counts.Following++
		}
	}
	return counts, nil
}

func (t *memTx) RankCollectors(_ context.Context, limit int) ([]UserScore, error) {
	scores := make(map[int64]int)
	for _, o := range t.s.ownerships {
		scores[o.UserID]++
	}
	return t.rankUsers(scores, limit), nil
}

func (t *memTx) RankActiveCollectors(_ context.Context, limit int) ([]UserScore, error) {
	scores := make(map[int64]int)
	for _, in := range t.s.interests {
		scores[in.UserID] += ActivityPerInterest
	}
	for _, o := range t.s.ownerships {
		scores[o.UserID] += ActivityPerOwnership
	}
	for _, c := range t.s.connections {
		scores[c.FollowingID] += ActivityPerFollower
		scores[c.FollowerID] += ActivityPerFollowing
	}
	return t.rankUsers(scores, limit), nil
}

func (t *memTx) rankUsers(scores map[int64]int, limit int) []UserScore {
	var out []UserScore
	for id, score := range scores {
		if score > 0 {
			out = append(out, UserScore{User: t.s.users[id], Score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *memTx) RankFlagsByInterest(_ context.Context, limit int) ([]FlagScore, error) {
	scores := make(map[int64]int)
	for _, in := range t.s.interests {
		scores[in.FlagID]++
	}

	out := make([]FlagScore, 0, len(t.s.flags))
	for id, f := range t.s.flags {
		out = append(out, FlagScore{Flag: f, Score: scores[id]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) CreateFlag(_ context.Context, flag *Flag) error {
	if err := t.writable("create flag"); err != nil {
		return err
	}

	flag.RecomputePair()
	now := t.clock.Now()
	flag.ID = t.s.nextID()
	flag.CreatedAt = now
	flag.UpdatedAt = now
	t.s.flags[flag.ID] = *flag

	return nil
}

func (t *memTx) GetFlag(_ context.Context, id int64) (*Flag, error) {
	f, ok := t.s.flags[id]
	if !ok {
		return nil, errNotFound("get flag")
	}
	return &f, nil
}

func (t *memTx) ListFlags(_ context.Context, filter FlagFilter) ([]Flag, error) {
	var out []Flag
	for _, f := range t.s.flags {
		if filter.MunicipalityID != nil && f.MunicipalityID != *filter.MunicipalityID {
			continue
		}
		if filter.Category != "" && f.Category != filter.Category {
			continue
		}
		if filter.OpenPairsOnly && f.PairComplete {
			continue
		}
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) LockFlag(ctx context.Context, id int64) (*Flag, error) {
	return t.GetFlag(ctx, id)
}

func (t *memTx) UpdateFlagPair(_ context.Context, flag *Flag) error {
	if err := t.writable("update flag pair"); err != nil {
		return err
	}

	stored, ok := t.s.flags[flag.ID]
	if !ok {
		return errNotFound("update flag pair")
	}

	flag.RecomputePair()
	flag.UpdatedAt = t.clock.Now()

	stored.FirstStatus = flag.FirstStatus
	stored.SecondStatus = flag.SecondStatus
	stored.PairComplete = flag.PairComplete
	stored.UpdatedAt = flag.UpdatedAt
	t.s.flags[flag.ID] = stored

	return nil
}

func (t *memTx) UpdateFlag(_ context.Context, flag *Flag) error {
	if err := t.writable("update flag"); err != nil {
		return err
	}

	stored, ok := t.s.flags[flag.ID]
	if !ok {
		return errNotFound("update flag")
	}

	flag.UpdatedAt = t.clock.Now()

	stored.Name = flag.Name
	stored.LocationType = flag.LocationType
	stored.Category = flag.Category
	stored.NFTsRequired = flag.NFTsRequired
	stored.Price = flag.Price
	stored.ImageIPFSHash = flag.ImageIPFSHash
	stored.MetadataIPFSHash = flag.MetadataIPFSHash
	stored.UpdatedAt = flag.UpdatedAt
	t.s.flags[flag.ID] = stored

	return nil
}

func (t *memTx) CreateInterest(_ context.Context, interest *FlagInterest) error {
	if err := t.writable("create interest"); err != nil {
		return err
	}
	if err := t.requireUserAndFlag("create interest", interest.UserID, interest.FlagID); err != nil {
		return err
	}

	for _, in := range t.s.interests {
		if in.UserID == interest.UserID && in.FlagID == interest.FlagID {
			return fmt.Errorf("create interest: %w", core.ErrDuplicateKey)
		}
	}

	interest.ID = t.s.nextID()
	interest.CreatedAt = t.clock.Now()
	t.s.interests = append(t.s.interests, *interest)

	return nil
}

func (t *memTx) ListInterests(_ context.Context, flagID int64) ([]FlagInterest, error) {
	var out []FlagInterest
	for _, in := range t.s.interests {
		if in.FlagID == flagID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (t *memTx) ListInterestsByUser(
	_ context.Context,
	userID int64,
) ([]FlagInterest, error) {
	var out []FlagInterest
	for _, in := range t.s.interests {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	slices.Reverse(out)
	return out, nil
}

func (t *memTx) CountInterests(ctx context.Context, flagID int64) (int, error) {
	interests, err := t.ListInterests(ctx, flagID)
	return len(interests), err
}

func (t *memTx) CreateOwnership(_ context.Context, ownership *FlagOwnership) error {
	if err := t.writable("create ownership"); err != nil {
		return err
	}
	if err := t.requireUserAndFlag("create ownership", ownership.UserID, ownership.FlagID); err != nil {
		return err
	}

	for _, o := range t.s.ownerships {
		if o.FlagID == ownership.FlagID && o.Kind == ownership.Kind {
			return fmt.Errorf("create ownership: %w", core.ErrDuplicateKey)
		}
	}

	ownership.ID = t.s.nextID()
	ownership.CreatedAt = t.clock.Now()
	t.s.ownerships = append(t.s.ownerships, *ownership)

	return nil
}

func (t *memTx) ListOwnerships(_ context.Context, flagID int64) ([]FlagOwnership, error) {
	var out []FlagOwnership
	for _, o := range t.s.ownerships {
		if o.FlagID == flagID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (t *memTx) ListOwnershipsByUser(
	_ context.Context,
	userID int64,
) ([]FlagOwnership, error) {
	var out []FlagOwnership
	for _, o := range t.s.ownerships {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	slices.Reverse(out)
	return out, nil
}

func (t *memTx) HasOwnership(_ context.Context, flagID, userID int64) (bool, error) {
	for _, o := range t.s.ownerships {
		if o.FlagID == flagID && o.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) DeleteOwnerships(_ context.Context, flagID int64) (int, error) {
	if err := t.writable("delete ownerships"); err != nil {
		return 0, err
	}

	before := len(t.s.ownerships)
	t.s.ownerships = slices.DeleteFunc(t.s.ownerships, func(o FlagOwnership) bool {
		return o.FlagID == flagID
	})

	return before - len(t.s.ownerships), nil
}

func (t *memTx) CreateAuction(_ context.Context, auction *Auction) error {
	if err := t.writable("create auction"); err != nil {
		return err
	}
	if err := t.requireUserAndFlag("create auction", auction.SellerID, auction.FlagID); err != nil {
		return err
	}

	if auction.Status == AuctionActive {
		for _, a := range t.s.auctions {
			if a.FlagID == auction.FlagID && a.Status == AuctionActive {
				return fmt.Errorf("create auction: %w", core.ErrActiveAuctionExists)
			}
		}
	}

	auction.ID = t.s.nextID()
	auction.UpdatedAt = auction.CreatedAt
	t.s.auctions[auction.ID] = *auction

	return nil
}

func (t *memTx) GetAuction(_ context.Context, id int64) (*Auction, error) {
	a, ok := t.s.auctions[id]
	if !ok {
		return nil, errNotFound("get auction")
	}
	return &a, nil
}

func (t *memTx) LockAuction(ctx context.Context, id int64) (*Auction, error) {
	return t.GetAuction(ctx, id)
}

func (t *memTx) HasActiveAuction(_ context.Context, flagID int64) (bool, error) {
	for _, a := range t.s.auctions {
		if a.FlagID == flagID && a.Status == AuctionActive {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) ListAuctions(_ context.Context, filter AuctionFilter) ([]Auction, error) {
	var out []Auction
	for _, a := range t.s.auctions {
		if filter.ActiveOnly && a.Status != AuctionActive {
			continue
		}
		if filter.FlagID != nil && a.FlagID != *filter.FlagID {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndsAt.Equal(out[j].EndsAt) {
			return out[i].EndsAt.Before(out[j].EndsAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (t *memTx) SwapHighestBid(
	_ context.Context,
	auctionID int64,
	prev decimal.NullDecimal,
	bid *Bid,
) (bool, error) {
	if err := t.writable("swap highest bid"); err != nil {
		return false, err
	}

	a, ok := t.s.auctions[auctionID]
	if !ok || a.Status != AuctionActive || !sameNullDecimal(a.CurrentHighestBid, prev) {
		return false, nil
	}

	bidderID := bid.BidderID
	category := bid.BidderCategory
	a.CurrentHighestBid = decimal.NewNullDecimal(bid.Amount)
	a.HighestBidderID = &bidderID
	a.WinnerCategory = &category
	a.UpdatedAt = bid.CreatedAt
	t.s.auctions[auctionID] = a

	return true, nil
}

func (t *memTx) FinishAuction(_ context.Context, auction *Auction) (bool, error) {
	if err := t.writable("finish auction"); err != nil {
		return false, err
	}

	a, ok := t.s.auctions[auction.ID]
	if !ok || a.Status != AuctionActive {
		return false, nil
	}

	a.Status = auction.Status
	a.CurrentHighestBid = auction.CurrentHighestBid
	a.HighestBidderID = auction.HighestBidderID
	a.WinnerCategory = auction.WinnerCategory
	a.UpdatedAt = auction.UpdatedAt
	t.s.auctions[auction.ID] = a

	return true, nil
}

func (t *memTx) CreateBid(_ context.Context, bid *Bid) error {
	if err := t.writable("create bid"); err != nil {
		return err
	}
	if _, ok := t.s.auctions[bid.AuctionID]; !ok {
		return errNotFound("create bid")
	}
	if _, ok := t.s.users[bid.BidderID]; !ok {
		return errNotFound("create bid")
	}

	bid.ID = t.s.nextID()
	t.s.bids = append(t.s.bids, *bid)

	return nil
}

func (t *memTx) ListBids(_ context.Context, auctionID int64) ([]Bid, error) {
	var out []Bid
	for _, b := range t.s.bids {
		if b.AuctionID == auctionID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) CountBids(ctx context.Context, auctionID int64) (int, error) {
	bids, err := t.ListBids(ctx, auctionID)
	return len(bids), err
}

// requireUserAndFlag stands in for the foreign keys of the SQL schema.
func (t *memTx) requireUserAndFlag(op string, userID, flagID int64) error {
	if _, ok := t.s.users[userID]; !ok {
		return errNotFound(op)
	}
	if _, ok := t.s.flags[flagID]; !ok {
		return errNotFound(op)
	}
	return nil
}

func sameNullDecimal(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
