package enums

// InventoryEvent names the structured log events emitted by the inventory core.
type InventoryEvent string

const (
	InventoryEventSaleAttempted  InventoryEvent = "sale.attempted"
	InventoryEventSaleCommitted  InventoryEvent = "sale.committed"
	InventoryEventSaleRolledBack InventoryEvent = "sale.rolled_back"
	InventoryEventSaleLowStock   InventoryEvent = "sale.low_stock_detected"
	InventoryEventSaleVoided     InventoryEvent = "sale.voided"
	InventoryEventLowStockAlert  InventoryEvent = "inventory.low_stock_alert"
)

// String implements fmt.Stringer.
func (e InventoryEvent) String() string {
	return string(e)
}
