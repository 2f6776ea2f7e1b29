package domain

import "fmt"

// CredentialMethod identifies where a credential's token comes from.
type CredentialMethod string

const (
	// CredentialStatic holds the token inline in the configuration.
	CredentialStatic CredentialMethod = "token"

	// CredentialEnv reads the token from an environment variable.
	CredentialEnv CredentialMethod = "env"

	// CredentialFile reads the token from a file.
	CredentialFile CredentialMethod = "file"
)

// Credential is a named bearer-token source that sources refer to.
// Token acquisition (OAuth flows, refresh) happens outside this engine.
type Credential struct {
	// Name is how sources reference this credential.
	Name string

	// Token is an inline token.
	Token string

	// TokenEnv names an environment variable holding the token.
	TokenEnv string

	// TokenFile is a path to a file holding the token.
	TokenFile string
}

// Method returns how the token is obtained.
func (c Credential) Method() CredentialMethod {
	switch {
	case c.TokenEnv != "":
		return CredentialEnv
	case c.TokenFile != "":
		return CredentialFile
	default:
		return CredentialStatic
	}
}

// Validate checks that exactly one token source is set.
func (c Credential) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: credential name is required", ErrConfiguration)
	}
	set := 0
	for _, v := range []string{c.Token, c.TokenEnv, c.TokenFile} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: credential %q must set exactly one of token, token_env, token_file",
			ErrConfiguration, c.Name)
	}
	return nil
}
