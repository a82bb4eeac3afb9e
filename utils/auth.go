package utils

import (
	"strings"

	"github.com/spf13/viper"
)

// PolicyConfig is the "commands" section of the merged configuration.
type PolicyConfig struct {
	// Moderators are usernames with moderator standing.
	Moderators []string `json:"moderators" mapstructure:"moderators"`

	// Allowed maps a command name to who may invoke it: explicit
	// usernames, "moderators", or "anyone".
	Allowed map[string][]string `json:"allowed" mapstructure:"allowed"`
}

// Auth answers authorization questions for admin commands.
type Auth struct {
	config PolicyConfig
}

// NewAuth creates an Auth instance from the loaded configuration.
func NewAuth() (*Auth, error) {
	var policy PolicyConfig
	if err := viper.UnmarshalKey("commands", &policy); err != nil {
		return nil, err
	}
	return &Auth{config: policy}, nil
}

// NewAuthFromPolicy builds an Auth directly from a policy, for tests.
func NewAuthFromPolicy(policy PolicyConfig) *Auth {
	return &Auth{config: policy}
}

// IsModerator checks if a user is one of the configured moderators.
func (a *Auth) IsModerator(username string) bool {
	for _, mod := range a.config.Moderators {
		if strings.EqualFold(mod, username) {
			return true
		}
	}
	return false
}

// CommandPolicy is the authorization view of a single command.
type CommandPolicy struct {
	auth    *Auth
	grantee []string
	known   bool
}

// Allows returns the policy for a command. Commands absent from the
// configuration allow nobody.
func (a *Auth) Allows(command string) *CommandPolicy {
	grantee, known := a.config.Allowed[strings.ToLower(command)]
	return &CommandPolicy{auth: a, grantee: grantee, known: known}
}

// ByUser checks if the author may invoke the command.
func (p *CommandPolicy) ByUser(author string) bool {
	if !p.known {
		return false
	}
	for _, g := range p.grantee {
		switch strings.ToLower(g) {
		case "anyone":
			return true
		case "moderators":
			if p.auth.IsModerator(author) {
				return true
			}
		default:
			if strings.EqualFold(g, author) {
				return true
			}
		}
	}
	return false
}
