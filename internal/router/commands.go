package router

import "stock-service/internal/auth"

type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionChangePassword Action = "change_password"

	ActionGetAllProducts Action = "get_all_products"
	ActionGetProduct     Action = "get_product"
	ActionSearchProducts Action = "search_products"
	ActionGetLowStock    Action = "get_low_stock"
	ActionAddProduct     Action = "add_product"
	ActionUpdateProduct  Action = "update_product"
	ActionDeleteProduct  Action = "delete_product"

	ActionGetAllSuppliers Action = "get_all_suppliers"
	ActionGetSupplier     Action = "get_supplier"
	ActionSearchSuppliers Action = "search_suppliers"
	ActionAddSupplier     Action = "add_supplier"
	ActionUpdateSupplier  Action = "update_supplier"
	ActionDeleteSupplier  Action = "delete_supplier"

	ActionRecordTransaction      Action = "record_transaction"
	ActionGetAllTransactions     Action = "get_all_transactions"
	ActionGetTodayTransactions   Action = "get_today_transactions"
	ActionGetProductTransactions Action = "get_product_transactions"

	ActionGetDailySales      Action = "get_daily_sales"
	ActionGetMonthlySales    Action = "get_monthly_sales"
	ActionGetSalesSummary    Action = "get_sales_summary"
	ActionGetTopProducts     Action = "get_top_products"
	ActionGetInventoryStatus Action = "get_inventory_status"

	ActionGetAuditLogs      Action = "get_audit_logs"
	ActionGetAllUsers       Action = "get_all_users"
	ActionRegisterUser      Action = "register_user"
	ActionDeactivateUser    Action = "deactivate_user"
	ActionGetActiveSessions Action = "get_active_sessions"
)

// Actions lists every declared action.
var Actions = []Action{
	ActionLogin, ActionLogout, ActionChangePassword,
	ActionGetAllProducts, ActionGetProduct, ActionSearchProducts, ActionGetLowStock,
	ActionAddProduct, ActionUpdateProduct, ActionDeleteProduct,
	ActionGetAllSuppliers, ActionGetSupplier, ActionSearchSuppliers,
	ActionAddSupplier, ActionUpdateSupplier, ActionDeleteSupplier,
	ActionRecordTransaction, ActionGetAllTransactions, ActionGetTodayTransactions, ActionGetProductTransactions,
	ActionGetDailySales, ActionGetMonthlySales, ActionGetSalesSummary, ActionGetTopProducts, ActionGetInventoryStatus,
	ActionGetAuditLogs, ActionGetAllUsers, ActionRegisterUser, ActionDeactivateUser, ActionGetActiveSessions,
}

// commandTable is the only place roles are checked.
func (r *Router) commandTable() map[Action]command {
	return map[Action]command{
		ActionLogin:          {auth.TierNone, r.login},
		ActionLogout:         {auth.TierAuthenticated, r.logout},
		ActionChangePassword: {auth.TierAuthenticated, r.changePassword},

		ActionGetAllProducts: {auth.TierAuthenticated, r.getAllProducts},
		ActionGetProduct:     {auth.TierAuthenticated, r.getProduct},
		ActionSearchProducts: {auth.TierAuthenticated, r.searchProducts},
		ActionGetLowStock:    {auth.TierAuthenticated, r.getLowStock},
		ActionAddProduct:     {auth.TierManager, r.addProduct},
		ActionUpdateProduct:  {auth.TierManager, r.updateProduct},
		ActionDeleteProduct:  {auth.TierAdmin, r.deleteProduct},

		ActionGetAllSuppliers: {auth.TierAuthenticated, r.getAllSuppliers},
		ActionGetSupplier:     {auth.TierAuthenticated, r.getSupplier},
		ActionSearchSuppliers: {auth.TierAuthenticated, r.searchSuppliers},
		ActionAddSupplier:     {auth.TierManager, r.addSupplier},
		ActionUpdateSupplier:  {auth.TierManager, r.updateSupplier},
		ActionDeleteSupplier:  {auth.TierAdmin, r.deleteSupplier},

		ActionRecordTransaction:      {auth.TierAuthenticated, r.recordTransaction},
		ActionGetAllTransactions:     {auth.TierAuthenticated, r.getAllTransactions},
		ActionGetTodayTransactions:   {auth.TierAuthenticated, r.getTodayTransactions},
		ActionGetProductTransactions: {auth.TierAuthenticated, r.getProductTransactions},

		ActionGetDailySales:      {auth.TierAuthenticated, r.getDailySales},
		ActionGetMonthlySales:    {auth.TierAuthenticated, r.getMonthlySales},
		ActionGetSalesSummary:    {auth.TierAuthenticated, r.getSalesSummary},
		ActionGetTopProducts:     {auth.TierAuthenticated, r.getTopProducts},
		ActionGetInventoryStatus: {auth.TierAuthenticated, r.getInventoryStatus},

		ActionGetAuditLogs:      {auth.TierAdmin, r.getAuditLogs},
		ActionGetAllUsers:       {auth.TierAdmin, r.getAllUsers},
		ActionRegisterUser:      {auth.TierAdmin, r.registerUser},
		ActionDeactivateUser:    {auth.TierAdmin, r.deactivateUser},
		ActionGetActiveSessions: {auth.TierAdmin, r.getActiveSessions},
	}
}

// TierOf reports the tier an action requires.
func (r *Router) TierOf(a Action) (auth.Tier, bool) {
	c, ok := r.commands[a]
	return c.tier, ok
}
