package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
)

// ssmAPI is the minimal AWS SSM interface required by SSM.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type cachedValue struct {
	value string
	found bool
}

// SSM reads parameters named <prefix>/<key> from AWS Systems Manager
// Parameter Store. Results, including absence, are cached for the lifetime
// of the store so a month run issues one request per key.
type SSM struct {
	api    ssmAPI
	prefix string

	mu    sync.Mutex
	cache map[string]cachedValue
}

// NewSSM wraps api with the given parameter prefix.
func NewSSM(api ssmAPI, prefix string) (*SSM, error) {
	if api == nil {
		return nil, errors.New("credentials: ssm api must not be nil")
	}
	return &SSM{
		api:    api,
		prefix: strings.TrimRight(strings.TrimSpace(prefix), "/"),
		cache:  make(map[string]cachedValue),
	}, nil
}

// NewSSMFromConfig loads the default AWS configuration for region and
// returns an SSM store.
func NewSSMFromConfig(ctx context.Context, region, prefix string) (*SSM, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region = strings.TrimSpace(region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("credentials: load aws config: %w", err)
	}
	return NewSSM(ssm.NewFromConfig(cfg), prefix)
}

// ParameterName returns the full parameter path for key.
func (s *SSM) ParameterName(key string) string {
	return s.prefix + "/" + normalizeKey(key)
}

// Lookup implements Store.
func (s *SSM) Lookup(ctx context.Context, key string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", errors.New("credentials: key is required")
	}

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		if !cached.found {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return cached.value, nil
	}

	name := s.ParameterName(key)
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if isParameterNotFound(err) {
			s.remember(key, cachedValue{})
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("credentials: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil || strings.TrimSpace(*out.Parameter.Value) == "" {
		s.remember(key, cachedValue{})
		return "", fmt.Errorf("%w: %s (empty parameter)", ErrNotFound, key)
	}
	value := strings.TrimSpace(*out.Parameter.Value)
	s.remember(key, cachedValue{value: value, found: true})
	return value, nil
}

func (s *SSM) remember(key string, value cachedValue) {
	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
}

func isParameterNotFound(err error) bool {
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ParameterNotFound"
}
