package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide prints step-by-step instructions for obtaining WhatsApp
// Cloud API credentials
func ShowTokenGuide(w io.Writer) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "WHATSAPP CLOUD API CREDENTIALS")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The cloud backend sends through the WhatsApp Business Cloud API instead")
	fmt.Fprintln(w, "of a browser. It needs an access token and a phone number ID.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Create an app")
	fmt.Fprintln(w, "   - Go to https://developers.facebook.com/apps")
	fmt.Fprintln(w, "   - Create a 'Business' app and add the WhatsApp product")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Find the phone number ID")
	fmt.Fprintln(w, "   - Open WhatsApp > API Setup")
	fmt.Fprintln(w, "   - Copy the 'Phone number ID' of the sending number")
	fmt.Fprintln(w, "   - The 'WhatsApp Business Account ID' is optional")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Create a permanent access token")
	fmt.Fprintln(w, "   - Business Settings > Users > System users > Add")
	fmt.Fprintln(w, "   - Assign the app and generate a token with the")
	fmt.Fprintln(w, "     whatsapp_business_messaging permission")
	fmt.Fprintln(w, "   - Temporary tokens from API Setup expire after 24 hours")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 4: Add recipients")
	fmt.Fprintln(w, "   - Test numbers can only message verified recipients")
	fmt.Fprintln(w, "   - Business-initiated messages outside a 24h window may need")
	fmt.Fprintln(w, "     an approved template")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SECURITY:")
	fmt.Fprintln(w, "   - The token can send messages as your business. Never share it.")
	fmt.Fprintln(w, "   - greetsend keeps it in the system keychain or an encrypted file.")
	fmt.Fprintln(w, "   - CI can use "+EnvAccessToken+" and "+EnvPhoneNumberID+" instead.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
}

// ShowQuickTokenGuide shows a condensed version for experienced users
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintln(w, "\nQuick Guide: developers.facebook.com > your app > WhatsApp > API Setup")
	fmt.Fprintln(w, "   Need: phone number ID and a system user access token")
	fmt.Fprintln(w, "   Run 'greetsend auth login --guide' for detailed instructions")
}
