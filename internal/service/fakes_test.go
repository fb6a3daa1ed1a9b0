package service

// In-memory repository fakes backing the service tests. They mirror the SQL
// implementations closely enough to exercise the business rules: not-found is
// gorm.ErrRecordNotFound, versioned updates enforce the expected version, and
// lookups hand out copies so a service mutation never leaks into the "stored"
// row before the write lands.

import (
	"context"
	"sort"
	"time"

	"toolcrib/internal/model"
	"toolcrib/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ repository.AuditFilter, _, _ int) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) lastAction() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

// --- orders ---

type fakeOrderRepo struct {
	orders   map[uuid.UUID]model.Order
	messages map[uuid.UUID]model.OrderMessage
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:   make(map[uuid.UUID]model.Order),
		messages: make(map[uuid.UUID]model.OrderMessage),
	}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := order
	return &copied, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })

	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	if end := start + limit; end < len(out) {
		out = out[start:end]
	} else {
		out = out[start:]
	}
	return out, total, nil
}

func (r *fakeOrderRepo) UpdateVersioned(_ context.Context, order *model.Order, expectedVersion int) error {
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (r *fakeOrderRepo) CreateMessage(_ context.Context, msg *model.OrderMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	r.messages[msg.ID] = *msg
	return nil
}

func (r *fakeOrderRepo) FindMessage(_ context.Context, id uuid.UUID) (*model.OrderMessage, error) {
	msg, ok := r.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := msg
	return &copied, nil
}

func (r *fakeOrderRepo) ListMessages(_ context.Context, orderID uuid.UUID) ([]model.OrderMessage, error) {
	var out []model.OrderMessage
	for _, msg := range r.messages {
		if msg.OrderID == orderID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListInbox(_ context.Context, recipientID uuid.UUID, _, _ int) ([]model.OrderMessage, int64, error) {
	var out []model.OrderMessage
	for _, msg := range r.messages {
		if msg.RecipientID != nil && *msg.RecipientID == recipientID {
			out = append(out, msg)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) CountUnread(_ context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	for _, msg := range r.messages {
		if msg.RecipientID != nil && *msg.RecipientID == recipientID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	msg, ok := r.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.IsRead = true
	r.messages[id] = msg
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
}

func (r *fakeUserRepo) add(user model.User) uuid.UUID {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return user.ID
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = r.add(*user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _ repository.UserFilter, _, _ int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ReplaceRoles(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
	return nil
}

// --- tools ---

type fakeToolRepo struct {
	tools map[uuid.UUID]model.Tool
}

func newFakeToolRepo() *fakeToolRepo {
	return &fakeToolRepo{tools: make(map[uuid.UUID]model.Tool)}
}

func (r *fakeToolRepo) Create(_ context.Context, tool *model.Tool) error {
	if tool.ID == uuid.Nil {
		tool.ID = uuid.New()
	}
	r.tools[tool.ID] = *tool
	return nil
}

func (r *fakeToolRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tool, error) {
	tool, ok := r.tools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := tool
	return &copied, nil
}

func (r *fakeToolRepo) FindByToolNumber(_ context.Context, toolNumber string) (*model.Tool, error) {
	for _, tool := range r.tools {
		if tool.ToolNumber == toolNumber {
			copied := tool
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeToolRepo) List(_ context.Context, filter repository.ToolFilter, _, _ int) ([]model.Tool, int64, error) {
	var out []model.Tool
	for _, tool := range r.tools {
		if filter.Status != "" && tool.Status != filter.Status {
			continue
		}
		out = append(out, tool)
	}
	return out, int64(len(out)), nil
}

func (r *fakeToolRepo) Update(_ context.Context, tool *model.Tool) error {
	if _, ok := r.tools[tool.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.tools[tool.ID] = *tool
	return nil
}

func (r *fakeToolRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	tool, ok := r.tools[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tool.Status = status
	r.tools[id] = tool
	return nil
}

func (r *fakeToolRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.tools, id)
	return nil
}

func (r *fakeToolRepo) CalibrationDue(_ context.Context, before time.Time) ([]model.Tool, error) {
	var out []model.Tool
	for _, tool := range r.tools {
		if tool.NextCalibrationDate != nil && tool.NextCalibrationDate.Before(before) {
			out = append(out, tool)
		}
	}
	return out, nil
}

func (r *fakeToolRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, tool := range r.tools {
		counts[tool.Status]++
	}
	return counts, nil
}

type fakeCheckoutRepo struct {
	checkouts map[uuid.UUID]model.Checkout
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{checkouts: make(map[uuid.UUID]model.Checkout)}
}

func (r *fakeCheckoutRepo) Create(_ context.Context, checkout *model.Checkout) error {
	if checkout.ID == uuid.Nil {
		checkout.ID = uuid.New()
	}
	r.checkouts[checkout.ID] = *checkout
	return nil
}

func (r *fakeCheckoutRepo) FindOpenByTool(_ context.Context, toolID uuid.UUID) (*model.Checkout, error) {
	for _, c := range r.checkouts {
		if c.ToolID == toolID && c.ReturnedAt == nil {
			copied := c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCheckoutRepo) Close(_ context.Context, id uuid.UUID, returnedAt time.Time) error {
	c, ok := r.checkouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.ReturnedAt = &returnedAt
	r.checkouts[id] = c
	return nil
}

func (r *fakeCheckoutRepo) ListByTool(_ context.Context, toolID uuid.UUID, _, _ int) ([]model.Checkout, int64, error) {
	var out []model.Checkout
	for _, c := range r.checkouts {
		if c.ToolID == toolID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCheckoutRepo) ListByUser(_ context.Context, userID uuid.UUID, openOnly bool, _, _ int) ([]model.Checkout, int64, error) {
	var out []model.Checkout
	for _, c := range r.checkouts {
		if c.UserID != userID {
			continue
		}
		if openOnly && c.ReturnedAt != nil {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCheckoutRepo) ListOpen(_ context.Context, _, _ int) ([]model.Checkout, int64, error) {
	var out []model.Checkout
	for _, c := range r.checkouts {
		if c.ReturnedAt == nil {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCheckoutRepo) CountOpen(_ context.Context) (int64, error) {
	var count int64
	for _, c := range r.checkouts {
		if c.ReturnedAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeCheckoutRepo) CountOverdue(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for _, c := range r.checkouts {
		if c.Overdue(now) {
			count++
		}
	}
	return count, nil
}

type fakeCalibrationRepo struct {
	records []model.CalibrationRecord
}

func (r *fakeCalibrationRepo) Create(_ context.Context, record *model.CalibrationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeCalibrationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CalibrationRecord, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			copied := rec
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCalibrationRepo) ListByTool(_ context.Context, toolID uuid.UUID) ([]model.CalibrationRecord, error) {
	var out []model.CalibrationRecord
	for _, rec := range r.records {
		if rec.ToolID == toolID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// --- kits ---

type fakeKitRepo struct {
	kits  map[uuid.UUID]model.Kit
	boxes map[uuid.UUID]model.KitBox
	items map[uuid.UUID]model.KitItem
}

func newFakeKitRepo() *fakeKitRepo {
	return &fakeKitRepo{
		kits:  make(map[uuid.UUID]model.Kit),
		boxes: make(map[uuid.UUID]model.KitBox),
		items: make(map[uuid.UUID]model.KitItem),
	}
}

func (r *fakeKitRepo) Create(_ context.Context, kit *model.Kit) error {
	if kit.ID == uuid.Nil {
		kit.ID = uuid.New()
	}
	r.kits[kit.ID] = *kit
	return nil
}

func (r *fakeKitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Kit, error) {
	kit, ok := r.kits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := kit
	copied.Boxes = nil
	for _, box := range r.boxes {
		if box.KitID == id {
			copied.Boxes = append(copied.Boxes, box)
		}
	}
	return &copied, nil
}

func (r *fakeKitRepo) List(_ context.Context, aircraftType string, activeOnly bool, _, _ int) ([]model.Kit, int64, error) {
	var out []model.Kit
	for _, kit := range r.kits {
		if aircraftType != "" && kit.AircraftType != aircraftType {
			continue
		}
		if activeOnly && !kit.IsActive {
			continue
		}
		out = append(out, kit)
	}
	return out, int64(len(out)), nil
}

func (r *fakeKitRepo) Update(_ context.Context, kit *model.Kit) error {
	if _, ok := r.kits[kit.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.kits[kit.ID] = *kit
	return nil
}

func (r *fakeKitRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	kit, ok := r.kits[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kit.IsActive = active
	r.kits[id] = kit
	return nil
}

func (r *fakeKitRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.kits, id)
	return nil
}

func (r *fakeKitRepo) CreateBox(_ context.Context, box *model.KitBox) error {
	if box.ID == uuid.Nil {
		box.ID = uuid.New()
	}
	r.boxes[box.ID] = *box
	return nil
}

func (r *fakeKitRepo) FindBox(_ context.Context, id uuid.UUID) (*model.KitBox, error) {
	box, ok := r.boxes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := box
	return &copied, nil
}

func (r *fakeKitRepo) DeleteBox(_ context.Context, id uuid.UUID) error {
	for itemID, item := range r.items {
		if item.BoxID == id {
			delete(r.items, itemID)
		}
	}
	delete(r.boxes, id)
	return nil
}

func (r *fakeKitRepo) CreateItem(_ context.Context, item *model.KitItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeKitRepo) FindItem(_ context.Context, id uuid.UUID) (*model.KitItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := item
	return &copied, nil
}

func (r *fakeKitRepo) UpdateItem(_ context.Context, item *model.KitItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeKitRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *fakeKitRepo) CountOutOfStock(_ context.Context) (int64, error) {
	var count int64
	for _, item := range r.items {
		if item.Status == model.KitItemOutOfStock {
			count++
		}
	}
	return count, nil
}

// --- chemicals ---

type fakeChemicalRepo struct {
	chemicals map[uuid.UUID]model.Chemical
}

func newFakeChemicalRepo() *fakeChemicalRepo {
	return &fakeChemicalRepo{chemicals: make(map[uuid.UUID]model.Chemical)}
}

func (r *fakeChemicalRepo) Create(_ context.Context, chem *model.Chemical) error {
	if chem.ID == uuid.Nil {
		chem.ID = uuid.New()
	}
	r.chemicals[chem.ID] = *chem
	return nil
}

func (r *fakeChemicalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Chemical, error) {
	chem, ok := r.chemicals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := chem
	return &copied, nil
}

func (r *fakeChemicalRepo) List(_ context.Context, filter repository.ChemicalFilter, _, _ int) ([]model.Chemical, int64, error) {
	var out []model.Chemical
	for _, chem := range r.chemicals {
		if filter.Status != "" && chem.Status != filter.Status {
			continue
		}
		out = append(out, chem)
	}
	return out, int64(len(out)), nil
}

func (r *fakeChemicalRepo) Update(_ context.Context, chem *model.Chemical) error {
	if _, ok := r.chemicals[chem.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.chemicals[chem.ID] = *chem
	return nil
}

func (r *fakeChemicalRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.chemicals, id)
	return nil
}

func (r *fakeChemicalRepo) ExpiringBefore(_ context.Context, cutoff time.Time) ([]model.Chemical, error) {
	var out []model.Chemical
	for _, chem := range r.chemicals {
		if chem.ExpirationDate != nil && chem.ExpirationDate.Before(cutoff) {
			out = append(out, chem)
		}
	}
	return out, nil
}
