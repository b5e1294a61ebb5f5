package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/repository"
)

type cartService struct {
	store   repository.Store
	pricing domain.Pricing
}

// Compile-time check that cartService implements domain.CartService.
var _ domain.CartService = (*cartService)(nil)

// NewCartService creates a CartService backed by the given store.
func NewCartService(store repository.Store, pricing domain.Pricing) domain.CartService {
	return &cartService{
		store:   store,
		pricing: pricing,
	}
}

// GetCart retrieves the identity's cart with items, or (nil, nil) when no
// cart exists yet.
func (s *cartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.CartDetail, error) {
	cart, err := s.findCart(ctx, s.store, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return s.loadCartDetail(ctx, s.store, cart)
}

// AddItem adds a product to the identity's cart, creating the cart on first
// use. The stock check runs against the resulting line total inside one
// transaction.
func (s *cartService) AddItem(ctx context.Context, identity domain.Identity, productID string, quantity int, variant map[string]string) (*domain.CartDetail, error) {
	if identity.IsZero() {
		return nil, ErrIdentityRequired
	}
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	productUUID, err := parseUUID(productID, "product ID")
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, productUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, "cart.add_item", "failed to get product")
	}

	if !domain.ProductStatus(product.Status).Sellable() {
		return nil, ErrProductNotActive
	}
	if product.TrackStock && product.Stock < int32(quantity) {
		return nil, domain.Errorf(domain.ECONFLICT, "cart.add_item",
			"insufficient stock: %s (%d left)", product.Name, product.Stock)
	}

	variantJSON, err := encodeVariant(variant)
	if err != nil {
		return nil, domain.Invalid("cart.add_item", "invalid variant selection")
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)
	q := tx.Queries()

	cart, err := s.findOrCreateCart(ctx, q, identity)
	if err != nil {
		return nil, err
	}

	// Re-check stock against the resulting total, not just the delta.
	existing, err := q.GetCartItem(ctx, repository.GetCartItemParams{
		CartID:    cart.ID,
		ProductID: productUUID,
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.Internal(err, "cart.add_item", "failed to get cart item")
	}
	newQuantity := existing.Quantity + int32(quantity)
	if newQuantity > domain.MaxLineQuantity {
		return nil, domain.Errorf(domain.EINVALID, "cart.add_item",
			"quantity limit is %d per product (%d already in cart)", domain.MaxLineQuantity, existing.Quantity)
	}
	if product.TrackStock && product.Stock < newQuantity {
		return nil, domain.Errorf(domain.ECONFLICT, "cart.add_item",
			"insufficient stock: %s (%d left, %d requested)", product.Name, product.Stock, newQuantity)
	}

	if _, err := q.UpsertCartItem(ctx, repository.UpsertCartItemParams{
		CartID:    cart.ID,
		ProductID: productUUID,
		Quantity:  int32(quantity),
		Variant:   variantJSON,
	}); err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to upsert cart item")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "cart.add_item", "failed to commit transaction")
	}

	return s.loadCartDetail(ctx, s.store, cart)
}

// UpdateItemQuantity overwrites a line's quantity after re-checking stock.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartItemID string, quantity int) (*domain.CartDetail, error) {
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	itemUUID, err := parseUUID(cartItemID, "cart item ID")
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, "cart.update_item", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)
	q := tx.Queries()

	item, err := q.GetCartItemByID(ctx, itemUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, domain.Internal(err, "cart.update_item", "failed to get cart item")
	}

	if item.TrackStock && item.Stock < int32(quantity) {
		return nil, domain.Errorf(domain.ECONFLICT, "cart.update_item",
			"insufficient stock (%d left, %d requested)", item.Stock, quantity)
	}

	if err := q.SetCartItemQuantity(ctx, repository.SetCartItemQuantityParams{
		ID:       itemUUID,
		Quantity: int32(quantity),
	}); err != nil {
		return nil, domain.Internal(err, "cart.update_item", "failed to update quantity")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "cart.update_item", "failed to commit transaction")
	}

	cart, err := s.store.GetCartByID(ctx, item.CartID)
	if err != nil {
		return nil, domain.Internal(err, "cart.update_item", "failed to get cart")
	}
	return s.loadCartDetail(ctx, s.store, cart)
}

// RemoveItem deletes the line for productID from the identity's cart.
func (s *cartService) RemoveItem(ctx context.Context, identity domain.Identity, productID string) (*domain.CartDetail, error) {
	productUUID, err := parseUUID(productID, "product ID")
	if err != nil {
		return nil, err
	}

	cart, err := s.findCart(ctx, s.store, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	deleted, err := s.store.DeleteCartItem(ctx, repository.DeleteCartItemParams{
		CartID:    cart.ID,
		ProductID: productUUID,
	})
	if err != nil {
		return nil, domain.Internal(err, "cart.remove_item", "failed to remove cart item")
	}
	if deleted == 0 {
		return nil, ErrCartItemNotFound
	}

	return s.loadCartDetail(ctx, s.store, cart)
}

// ClearCart deletes all lines from the identity's cart. Idempotent.
func (s *cartService) ClearCart(ctx context.Context, identity domain.Identity) error {
	cart, err := s.findCart(ctx, s.store, identity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if err := s.store.ClearCartItems(ctx, cart.ID); err != nil {
		return domain.Internal(err, "cart.clear", "failed to clear cart")
	}
	return nil
}

// MergeSessionIntoUser folds the session cart into the user cart inside one
// transaction, summing quantities for overlapping products up to the line
// quantity limit, then deletes the session cart. Returns (nil, nil) when
// there is nothing to merge.
func (s *cartService) MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (*domain.CartDetail, error) {
	if sessionID == "" || userID == "" {
		return nil, domain.Invalid("cart.merge", "session ID and user ID are required")
	}

	if _, err := parseUUID(userID, "user ID"); err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)
	q := tx.Queries()

	sessionCart, err := q.GetCartBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, "cart.merge", "failed to get session cart")
	}

	sessionItems, err := q.GetCartItems(ctx, sessionCart.ID)
	if err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to get session cart items")
	}
	if len(sessionItems) == 0 {
		return nil, nil
	}

	userCart, err := s.findOrCreateCart(ctx, q, domain.Identity{UserID: userID})
	if err != nil {
		return nil, err
	}

	for _, item := range sessionItems {
		existing, err := q.GetCartItem(ctx, repository.GetCartItemParams{
			CartID:    userCart.ID,
			ProductID: item.ProductID,
		})
		fresh := errors.Is(err, pgx.ErrNoRows)
		if err != nil && !fresh {
			return nil, domain.Internal(err, "cart.merge", "failed to get cart item")
		}

		// Cap the summed line at the quantity limit instead of failing the
		// whole merge on login.
		delta := item.Quantity
		if existing.Quantity+delta > domain.MaxLineQuantity {
			delta = domain.MaxLineQuantity - existing.Quantity
		}
		if delta <= 0 {
			continue
		}

		// A fresh line carries the session variant; an overlapping line
		// keeps the user's stored variant.
		var variant []byte
		if fresh {
			variant = item.Variant
		}

		if _, err := q.UpsertCartItem(ctx, repository.UpsertCartItemParams{
			CartID:    userCart.ID,
			ProductID: item.ProductID,
			Quantity:  delta,
			Variant:   variant,
		}); err != nil {
			return nil, domain.Internal(err, "cart.merge", "failed to merge cart item")
		}
	}

	// Items cascade with the cart row.
	if err := q.DeleteCart(ctx, sessionCart.ID); err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to delete session cart")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "cart.merge", "failed to commit transaction")
	}

	return s.loadCartDetail(ctx, s.store, userCart)
}

// ItemCount returns the total quantity across the identity's cart.
func (s *cartService) ItemCount(ctx context.Context, identity domain.Identity) (int, error) {
	detail, err := s.GetCart(ctx, identity)
	if err != nil {
		return 0, err
	}
	if detail == nil {
		return 0, nil
	}
	return detail.ItemCount, nil
}

// findCart resolves the cart for an identity. User identity takes
// precedence over the session. Returns pgx.ErrNoRows when absent.
func (s *cartService) findCart(ctx context.Context, q repository.Querier, identity domain.Identity) (repository.Cart, error) {
	if identity.IsZero() {
		return repository.Cart{}, ErrIdentityRequired
	}

	if identity.IsUser() {
		userUUID, err := parseUUID(identity.UserID, "user ID")
		if err != nil {
			return repository.Cart{}, err
		}
		return q.GetCartByUserID(ctx, userUUID)
	}
	return q.GetCartBySessionID(ctx, identity.SessionID)
}

// findOrCreateCart resolves the identity's cart, creating it lazily on
// first use.
func (s *cartService) findOrCreateCart(ctx context.Context, q repository.Querier, identity domain.Identity) (repository.Cart, error) {
	cart, err := s.findCart(ctx, q, identity)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return repository.Cart{}, err
		}
		return repository.Cart{}, domain.Internal(err, "cart.find_or_create", "failed to get cart")
	}

	params := repository.CreateCartParams{}
	if identity.IsUser() {
		userUUID, err := parseUUID(identity.UserID, "user ID")
		if err != nil {
			return repository.Cart{}, err
		}
		params.UserID = userUUID
	} else {
		params.SessionID = pgtype.Text{String: identity.SessionID, Valid: true}
	}

	cart, err = q.CreateCart(ctx, params)
	if err != nil {
		return repository.Cart{}, domain.Internal(err, "cart.find_or_create", "failed to create cart")
	}
	return cart, nil
}

// loadCartDetail fetches the cart's items and maps them into the domain
// view with line totals.
func (s *cartService) loadCartDetail(ctx context.Context, q repository.Querier, cart repository.Cart) (*domain.CartDetail, error) {
	rows, err := q.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, "cart.load", "failed to get cart items")
	}

	items := make([]domain.CartItem, 0, len(rows))
	var itemCount int
	var subtotal int64

	for _, row := range rows {
		variant, err := decodeVariant(row.Variant)
		if err != nil {
			return nil, domain.Internal(err, "cart.load", "failed to decode variant")
		}

		lineTotal := row.Price * int64(row.Quantity)
		itemCount += int(row.Quantity)
		subtotal += lineTotal

		imageURL := ""
		if row.ImageUrl.Valid {
			imageURL = row.ImageUrl.String
		}

		items = append(items, domain.CartItem{
			ID:          row.ID,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			SKU:         row.Sku,
			UnitPrice:   row.Price,
			Quantity:    row.Quantity,
			Variant:     variant,
			ImageURL:    imageURL,
			Stock:       row.Stock,
			TrackStock:  row.TrackStock,
			LineTotal:   lineTotal,
		})
	}

	return &domain.CartDetail{
		Cart: domain.Cart{
			ID:        cart.ID,
			UserID:    cart.UserID,
			SessionID: cart.SessionID,
			CreatedAt: cart.CreatedAt,
			UpdatedAt: cart.UpdatedAt,
		},
		Items:     items,
		ItemCount: itemCount,
		Subtotal:  subtotal,
	}, nil
}

// parseUUID scans a string identifier into a pgtype.UUID.
func parseUUID(s, what string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(s); err != nil {
		return id, domain.Invalid("", fmt.Sprintf("invalid %s", what))
	}
	return id, nil
}

// encodeVariant marshals a variant selection for storage. A nil map encodes
// to nil so the store keeps any existing variant.
func encodeVariant(variant map[string]string) ([]byte, error) {
	if variant == nil {
		return nil, nil
	}
	return json.Marshal(variant)
}

// decodeVariant unmarshals a stored variant selection. Empty objects decode
// to nil.
func decodeVariant(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var variant map[string]string
	if err := json.Unmarshal(raw, &variant); err != nil {
		return nil, err
	}
	if len(variant) == 0 {
		return nil, nil
	}
	return variant, nil
}
