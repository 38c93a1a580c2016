package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMPrefix marks a secret that lives in AWS Systems Manager Parameter Store.
const SSMPrefix = "ssm:"

// ParameterReader is the part of *ssm.Client used to resolve secrets.
type ParameterReader interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMClient builds a Parameter Store client from the default AWS
// credential chain.
func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

func (c *Config) secrets() []*string {
	out := []*string{&c.Redis.Password}
	for _, p := range c.providers() {
		out = append(out, &p.Token)
	}
	return out
}

// NeedsSSM reports whether any secret references Parameter Store.
func (c *Config) NeedsSSM() bool {
	for _, s := range c.secrets() {
		if strings.HasPrefix(*s, SSMPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every "ssm:<name>" value with the decrypted
// parameter.
func (c *Config) ResolveSecrets(ctx context.Context, r ParameterReader) error {
	for _, s := range c.secrets() {
		name, ok := strings.CutPrefix(*s, SSMPrefix)
		if !ok {
			continue
		}
		out, err := r.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("get parameter %s: %w", name, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return fmt.Errorf("get parameter %s: empty value", name)
		}
		*s = *out.Parameter.Value
	}
	return nil
}
