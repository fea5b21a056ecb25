package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// aksNodePrices maps common AKS node VM sizes to per-node monthly prices
// (Linux, pay-as-you-go). Sizes missing from the table fall back to
// defaultNodeMonthlyUSD so savings estimates stay conservative rather
// than zero.
var aksNodePrices = map[string]decimal.Decimal{
	"Standard_B2s":     usd("30.37"),
	"Standard_B4ms":    usd("121.47"),
	"Standard_D2s_v3":  usd("70.08"),
	"Standard_D4s_v3":  usd("140.16"),
	"Standard_D8s_v3":  usd("280.32"),
	"Standard_D2s_v5":  usd("70.08"),
	"Standard_D4s_v5":  usd("140.16"),
	"Standard_D8s_v5":  usd("280.32"),
	"Standard_DS2_v2":  usd("106.58"),
	"Standard_DS3_v2":  usd("213.16"),
	"Standard_E4s_v3":  usd("184.23"),
	"Standard_E8s_v3":  usd("368.46"),
	"Standard_F4s_v2":  usd("123.37"),
	"Standard_F8s_v2":  usd("246.74"),
}

// defaultNodeMonthlyUSD is used for VM sizes absent from the table.
var defaultNodeMonthlyUSD = usd("140.16")

// AKSNodeMonthlyCost returns the monthly price of one node of the given VM
// size. The second return is false when the size was not in the table and
// the default price was used.
func AKSNodeMonthlyCost(vmSize string) (float64, bool) {
	if p, ok := aksNodePrices[vmSize]; ok {
		return p.InexactFloat64(), true
	}
	return defaultNodeMonthlyUSD.InexactFloat64(), false
}

// AKSNodePoolMonthlyCost returns the monthly price of count nodes of the
// given VM size.
func AKSNodePoolMonthlyCost(vmSize string, count int32) float64 {
	if count < 0 {
		count = 0
	}
	per, ok := aksNodePrices[vmSize]
	if !ok {
		per = defaultNodeMonthlyUSD
	}
	return per.Mul(decimal.NewFromInt32(count)).InexactFloat64()
}

// Managed disk per-GiB monthly prices by performance class.
var (
	premiumDiskPerGiB  = usd("0.132")
	standardDiskPerGiB = usd("0.0768")
)

// DiskMonthlyCostPerGiB returns the per-GiB monthly price for a storage
// class name. Classes containing "premium" price as Premium SSD; everything
// else prices as Standard SSD.
func DiskMonthlyCostPerGiB(storageClassName string) float64 {
	if isPremiumClass(storageClassName) {
		return premiumDiskPerGiB.InexactFloat64()
	}
	return standardDiskPerGiB.InexactFloat64()
}

// DiskMonthlyCost returns the monthly price of a provisioned volume.
func DiskMonthlyCost(storageClassName string, capacityGiB float64) float64 {
	per := standardDiskPerGiB
	if isPremiumClass(storageClassName) {
		per = premiumDiskPerGiB
	}
	return per.Mul(decimal.NewFromFloat(capacityGiB)).InexactFloat64()
}

func isPremiumClass(storageClassName string) bool {
	return strings.Contains(strings.ToLower(storageClassName), "premium")
}
