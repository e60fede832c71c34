package hedera

import "fmt"

// HashScanURL 生成交易在 HashScan 浏览器上的链接。主网不带网络前缀，
// 其余网络（testnet/previewnet）带。
func HashScanURL(network, txRef string) string {
	if network == "" || network == "mainnet" {
		return fmt.Sprintf("https://hashscan.io/transaction/%s", txRef)
	}
	return fmt.Sprintf("https://hashscan.io/%s/transaction/%s", network, txRef)
}
