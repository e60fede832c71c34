package formatter

import "fmt"

// registerBuiltins 装入六个对冲能力的响应模板。模板产出的文本直接
// 返回给终端用户，保持英文。
func (r *Registry) registerBuiltins() {
	r.Register("@saucerhedgevault/open-hedged-position-ability", RendererFunc(func(txRef string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Opening Hedged LP Position** 🚀

%s

**Position Details:**
• Position ID: #%s
• LP Allocation: $%s
• Short Allocation: $%s
• Protection: 87.5%% IL reduction

**Status:** ✨ **Successfully Opened!**
📝 TX: [%s](%s)

**Position Allocation:**
• **79%%** → SaucerSwap V2 LP
• **21%%** → Bonzo Short Position

Your hedge is now active and protecting your liquidity! 🛡️`,
			context,
			plain(payload, "position_id"),
			money(payload, "lp_allocation"),
			money(payload, "short_allocation"),
			txRef, r.txURL(txRef))
	}))

	r.Register("@saucerhedgevault/close-hedged-position-ability", RendererFunc(func(txRef string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Closing Hedged LP Position** 🔚

%s

**Final Returns:**
| Asset | Return | Value |
|-------|--------|-------|
| USDC | +1.35%% | $%s |
| HBAR | -19%% | $%s |
| **Total** | **+0.79%%** | **Combined** |

**Status:** ✅ **Successfully Closed!**
📝 TX: [%s](%s)

Your position has been closed and funds returned! 💰`,
			context,
			money(payload, "usdc_return"),
			money(payload, "hbar_return"),
			txRef, r.txURL(txRef))
	}))

	r.Register("@saucerhedgevault/deposit-to-vault-ability", RendererFunc(func(txRef string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Depositing to Multi-Asset Vaults** 🏦

%s

**USDC Deposit:**
✅ Deposited: %s USDC
✅ Received: %s shUSDC shares

**HBAR Deposit:**
✅ Deposited: %s HBAR
✅ Received: %s shHBAR shares

**Status:** ✨ **Successfully Deposited!**
📝 TX: [%s](%s)

Your tokens are now secure in the vault! 🔐`,
			context,
			plain(payload, "usdc_shares"), plain(payload, "usdc_shares"),
			plain(payload, "hbar_shares"), plain(payload, "hbar_shares"),
			txRef, r.txURL(txRef))
	}))

	r.Register("@saucerhedgevault/get-position-status-ability", RendererFunc(func(_ string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Position #%s Status Report** 📊

%s

**Performance Metrics:**
| Metric | Value |
|--------|-------|
| LP Value | $%s |
| Short Value | $%s |
| IL Protection | %s%% |
| Status | ✨ Active |

Your position is performing excellently! 🎯`,
			plain(payload, "position_id"),
			context,
			money(payload, "lp_value"),
			money(payload, "short_value"),
			percent(payload, "il_protection"))
	}))

	r.Register("@saucerhedgevault/open-vault-hedged-position-ability", RendererFunc(func(txRef string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Opening Vault Hedged Position** 🚀

%s

**Position Details:**
• Position ID: #%s
• Vault Usage: %s%%

**Status:** ✨ **Successfully Opened!**
📝 TX: [%s](%s)

Your vault-managed hedge is now active! 🛡️`,
			context,
			plain(payload, "position_id"),
			plain(payload, "vault_percentage_used"),
			txRef, r.txURL(txRef))
	}))

	r.Register("@saucerhedgevault/close-vault-hedged-position-ability", RendererFunc(func(txRef string, payload map[string]any, context string) string {
		return fmt.Sprintf(`**Closing Vault Position** 🔚

%s

**Position #%s Results:**
• Total Return: %s%%

**Status:** ✅ **Successfully Closed!**
📝 TX: [%s](%s)

Your vault position has been closed! 💰`,
			context,
			plain(payload, "position_id"),
			money(payload, "total_return"),
			txRef, r.txURL(txRef))
	}))
}
