package auth

import (
	"fmt"
	"strings"
)

// ShowSetupGuide displays step-by-step instructions for registering a
// Reddit script app and finding its credentials.
func ShowSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 REDDIT SCRIPT APP SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool authenticates against the Reddit API as a script app.")
	fmt.Println("Follow these steps to register one and collect its credentials:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open the app preferences page")
	fmt.Println("   - Go to https://www.reddit.com/prefs/apps")
	fmt.Println("   - Log in with the account you want to download with")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Create the app")
	fmt.Println("   - Click 'create another app...' at the bottom of the page")
	fmt.Println("   - Pick any name, e.g. 'bdfr'")
	fmt.Println("   - Select the 'script' type")
	fmt.Println("   - Set the redirect uri to http://localhost:8080 (it is unused)")
	fmt.Println("   - Click 'create app'")
	fmt.Println()

	fmt.Println("🔑 STEP 3: Copy the credentials")
	fmt.Println("   - The client ID is the short string under the app name")
	fmt.Println("   - The client secret is the value labelled 'secret'")
	fmt.Println("   - The username and password are the account's own login")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Script apps only work for the account that registered them")
	fmt.Println("   • With two-factor auth enabled, append the current code to the")
	fmt.Println("     password as password:123456")
	fmt.Println("   • Without credentials the tool still runs read-only, at a lower")
	fmt.Println("     rate limit and without access to private subreddits")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The secret and password give full access to the account")
	fmt.Println("   • NEVER share them or commit them to a repository")
	fmt.Println("   • Store them with 'bdfr auth login' (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickSetupGuide shows a condensed version for experienced users
func ShowQuickSetupGuide() {
	fmt.Println("\n🔑 Quick guide: reddit.com/prefs/apps → create another app → type 'script'")
	fmt.Println("   Need: client ID (under the name), secret, account username and password")
	fmt.Println("   Run 'bdfr auth guide' for detailed instructions")
}
