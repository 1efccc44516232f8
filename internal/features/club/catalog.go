// catalog.go — каталоги найма и покупок. Данные, не код:
// баланс правится здесь, без изменения логики.
package club

// Цена открытия клуба.
const createCost = 5000

// Стартовая базовая выручка в час.
const baseRevenuePerHour = 120

var staffCatalog = []Asset{
	{Name: "Бармен", Boost: 1.10, Cost: 1500, Upkeep: 300},
	{Name: "Диджей", Boost: 1.20, Cost: 3000, Upkeep: 600},
	{Name: "Охранник", Boost: 1.08, Cost: 1200, Upkeep: 250},
	{Name: "Промоутер", Boost: 1.25, Cost: 5000, Upkeep: 900},
	{Name: "Арт-директор", Boost: 1.35, Cost: 9000, Upkeep: 1500},
}

var equipmentCatalog = []Asset{
	{Name: "Светомузыка", Boost: 1.15, Cost: 2500, Upkeep: 200},
	{Name: "Звуковая система", Boost: 1.25, Cost: 6000, Upkeep: 450},
	{Name: "Дым-машина", Boost: 1.10, Cost: 1800, Upkeep: 150},
	{Name: "VIP-зона", Boost: 1.40, Cost: 12000, Upkeep: 800},
}

var upgradeCatalog = []Asset{
	{Name: "Ремонт зала", Boost: 1.20, Cost: 8000},
	{Name: "Второй этаж", Boost: 1.50, Cost: 25000},
	{Name: "Летняя веранда", Boost: 1.30, Cost: 15000},
}

// hasAsset — активы не дублируются.
func hasAsset(assets []Asset, name string) bool {
	for _, a := range assets {
		if a.Name == name {
			return true
		}
	}
	return false
}
