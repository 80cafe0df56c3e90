package payments

import "strings"

// NormalizePhone canonicalizes a subscriber number to the 254XXXXXXXXX form.
// Local 07XXXXXXXX numbers are rewritten by replacing the trunk prefix with
// the country code; numbers already in international form pass through.
// Any other shape is a validation failure.
func NormalizePhone(phone string) (string, error) {
	if phone == "" {
		return "", &ValidationError{Field: "phoneNumber", Reason: "required"}
	}
	if !digitsOnly(phone) {
		return "", &ValidationError{Field: "phoneNumber", Reason: "must contain digits only"}
	}
	if strings.HasPrefix(phone, "07") && len(phone) == 10 {
		return "254" + phone[1:], nil
	}
	if strings.HasPrefix(phone, "254") && len(phone) == 12 {
		return phone, nil
	}
	return "", &ValidationError{Field: "phoneNumber", Reason: "must be 07XXXXXXXX or 254XXXXXXXXX"}
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
