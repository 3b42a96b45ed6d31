package google

import "github.com/alertline/go-auth/social"

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

func mapProfile(info *googleUserInfo) *social.SocialProfile {
	if info == nil {
		return nil
	}

	return &social.SocialProfile{
		ProviderAccountID: info.Sub,
		Provider:          "google",
		Email:             info.Email,
		EmailVerified:     info.EmailVerified,
		Name:              info.Name,
		AvatarURL:         info.Picture,
		Raw: map[string]any{
			"sub":            info.Sub,
			"email":          info.Email,
			"email_verified": info.EmailVerified,
			"name":           info.Name,
			"picture":        info.Picture,
			"locale":         info.Locale,
		},
	}
}
