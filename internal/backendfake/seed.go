package backendfake

import "github.com/jrsteele09/vineyard-dashboard/users"

// DemoPassword is the password of every demo account
const DemoPassword = "vineyard123"

// SeedDemo loads one account per role plus a small site, block and work order
func (b *Backend) SeedDemo() {
	admin := b.SeedUser(users.User{FirstName: "Ada", LastName: "Admin", Email: "admin@vineyard.test", Role: users.RoleAdmin}, DemoPassword)
	customer := b.SeedUser(users.User{FirstName: "Cora", LastName: "Grower", Email: "customer@vineyard.test", Role: users.RoleCustomer, CompanyName: "Hillside Estate"}, DemoPassword)
	manager := b.SeedUser(users.User{FirstName: "Sam", LastName: "Manager", Email: "manager@vineyard.test", Role: users.RoleSiteManager}, DemoPassword)
	company := b.SeedUser(users.User{Email: "contractor@vineyard.test", Role: users.RoleServiceCompany, CompanyName: "Row Crew Services"}, DemoPassword)
	worker := b.SeedUser(users.User{FirstName: "Wes", LastName: "Picker", Email: "worker@vineyard.test", Role: users.RoleWorker, Skills: []string{"pruning", "picking"}, HourlyRate: 31, CompanyID: company.ID}, DemoPassword)
	_ = admin

	siteID := b.Seed(collSites, map[string]any{
		"name": "Hillside North", "address": "12 Vine Rd, McLaren Vale", "region": "McLaren Vale",
		"customerId": customer.ID, "siteManagerId": manager.ID, "areaHectares": 14.5,
		"varieties": []any{"Shiraz", "Grenache"},
	})
	blockID := b.Seed(collBlocks, map[string]any{
		"siteId": siteID, "name": "Block A", "variety": "Shiraz", "rowCount": 42, "vineCount": 3150, "areaHectares": 3.2, "plantedYear": 1998,
	})
	orderID := b.Seed(collWorkOrders, map[string]any{
		"title": "Winter pruning", "type": "pruning", "siteId": siteID, "blockIds": []any{blockID},
		"customerId": customer.ID, "serviceCompanyId": company.ID, "status": "pending", "priority": "high",
		"estimatedHours": 120, "instructions": "<p>Spur prune to <strong>two buds</strong>.</p>",
	})
	b.Seed(collTasks, map[string]any{
		"workOrderId": orderID, "workerId": worker.ID, "blockId": blockID,
		"description": "Prune rows 1-20", "status": "assigned",
	})
}
