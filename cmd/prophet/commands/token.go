package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fivetwenty-io/prophet/internal/auth"
	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/golang-jwt/jwt/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const tokenPreviewLength = 12

// TokenStatus is the output of token show and token refresh.
type TokenStatus struct {
	Token     string    `json:"token"                yaml:"token"`
	TokenType string    `json:"token_type"           yaml:"token_type"`
	ExpiresAt time.Time `json:"expires_at"           yaml:"expires_at"`
	ExpiresIn string    `json:"expires_in"           yaml:"expires_in"`
	Valid     bool      `json:"valid"                yaml:"valid"`
	Subject   string    `json:"subject,omitempty"    yaml:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty"     yaml:"issuer,omitempty"`
	Audience  []string  `json:"audience,omitempty"   yaml:"audience,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"  yaml:"issued_at,omitempty"`
	ClaimsExp time.Time `json:"claims_exp,omitempty" yaml:"claims_exp,omitempty"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
		Long:  "Inspect and refresh the cached OAuth2 access token",
	}

	cmd.AddCommand(newTokenShowCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenShowCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current access token",
		Long:  "Show the cached access token, fetching one if none is cached or it is about to expire",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			token, err := auth.TokenSource(cmd.Context(), client.TokenManager()).Token()
			if err != nil {
				return fmt.Errorf("failed to get token: %w", err)
			}

			return displayTokenStatus(cmd.OutOrStdout(), buildTokenStatus(token, time.Now(), reveal))
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full token")

	return cmd
}

func newTokenRefreshCommand() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Force a token refresh",
		Long:  "Fetch a new access token regardless of the cached one and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := createClient(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			accessToken, err := client.TokenManager().ForceRefresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}

			expiresAt, _ := client.TokenManager().ExpiresAt()

			token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer", Expiry: expiresAt}

			return displayTokenStatus(cmd.OutOrStdout(), buildTokenStatus(token, time.Now(), reveal))
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full token")

	return cmd
}

func buildTokenStatus(token *oauth2.Token, now time.Time, reveal bool) *TokenStatus {
	status := &TokenStatus{
		Token:     maskToken(token.AccessToken, reveal),
		TokenType: token.Type(),
		ExpiresAt: token.Expiry,
		ExpiresIn: token.Expiry.Sub(now).Round(time.Second).String(),
		Valid:     token.Valid() && now.Before(token.Expiry),
	}

	claims, err := decodeClaims(token.AccessToken)
	if err != nil {
		return status
	}

	status.Subject, _ = claims.GetSubject()
	status.Issuer, _ = claims.GetIssuer()

	if audience, err := claims.GetAudience(); err == nil {
		status.Audience = audience
	}

	if issuedAt, err := claims.GetIssuedAt(); err == nil && issuedAt != nil {
		status.IssuedAt = issuedAt.UTC()
	}

	if exp, err := claimsExpiry(claims); err == nil {
		status.ClaimsExp = exp
	}

	return status
}

// decodeClaims reads the claims of a JWT access token without verifying its
// signature. Opaque tokens fail to parse.
func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}

	return claims, nil
}

func claimsExpiry(claims jwt.MapClaims) (time.Time, error) {
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("reading exp claim: %w", err)
	}

	if exp == nil {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return exp.UTC(), nil
}

func maskToken(token string, reveal bool) string {
	if reveal || token == "" {
		return token
	}

	if len(token) <= tokenPreviewLength {
		return constants.MaskedSecret
	}

	return token[:tokenPreviewLength] + constants.MaskedSecret
}

func displayTokenStatus(w io.Writer, status *TokenStatus) error {
	return render(w, status, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append([]string{"Token", status.Token})
		_ = table.Append([]string{"Type", status.TokenType})
		_ = table.Append([]string{"Expires At", formatTime(status.ExpiresAt)})
		_ = table.Append([]string{"Expires In", status.ExpiresIn})
		_ = table.Append([]string{"Valid", fmt.Sprintf("%t", status.Valid)})
		_ = table.Append([]string{"Subject", formatConfigValue(status.Subject)})
		_ = table.Append([]string{"Issuer", formatConfigValue(status.Issuer)})
		_ = table.Append([]string{"Audience", formatConfigValue(strings.Join(status.Audience, ", "))})
		_ = table.Append([]string{"Issued At", formatTime(status.IssuedAt)})

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return t.Local().Format(time.RFC3339)
}
