package dynamo

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewClient builds a DynamoDB client from cfg on top of the default AWS
// credential/region chain.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	lo, err := loadOptions(cfg)
	if err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, lo...)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		return nil, fmt.Errorf("dynamo: no region configured")
	}
	endpoint := cfg.endpointURL()
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func loadOptions(cfg Config) ([]func(*config.LoadOptions) error, error) {
	var lo []func(*config.LoadOptions) error
	if cfg.Region != "" {
		lo = append(lo, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		lo = append(lo, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		lo = append(lo, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	proxy, err := cfg.proxyURL()
	if err != nil {
		return nil, err
	}
	hc := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
		if proxy != nil {
			tr.Proxy = http.ProxyURL(proxy)
		}
		if cfg.ValidateCerts != nil && !*cfg.ValidateCerts {
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.InsecureSkipVerify = true
		}
	})
	if cfg.Timeout > 0 {
		hc = hc.WithTimeout(cfg.Timeout)
	}
	lo = append(lo, config.WithHTTPClient(hc))

	if cfg.MaxRetries != nil || len(cfg.RetryErrorCodes) > 0 {
		lo = append(lo, config.WithRetryer(func() aws.Retryer {
			var r aws.Retryer = retry.NewStandard(func(o *retry.StandardOptions) {
				if cfg.MaxRetries != nil {
					// attempts = first try + retries
					o.MaxAttempts = *cfg.MaxRetries + 1
				}
			})
			if len(cfg.RetryErrorCodes) > 0 {
				r = retry.AddWithErrorCodes(r, cfg.RetryErrorCodes...)
			}
			return r
		}))
	}
	return lo, nil
}

// endpointURL returns Endpoint, or one composed from Host/Port/IsSecure.
func (c Config) endpointURL() string {
	if c.Endpoint != "" || c.Host == "" {
		return c.Endpoint
	}
	scheme := "https"
	if c.IsSecure != nil && !*c.IsSecure {
		scheme = "http"
	}
	host := c.Host
	if c.Port != nil {
		host += ":" + strconv.Itoa(*c.Port)
	}
	return scheme + "://" + host
}

func (c Config) proxyURL() (*url.URL, error) {
	if c.Proxy == "" {
		return nil, nil
	}
	raw := c.Proxy
	if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dynamo: proxy %q: %w", c.Proxy, err)
	}
	if c.ProxyPort != nil {
		u.Host = u.Hostname() + ":" + strconv.Itoa(*c.ProxyPort)
	}
	if c.ProxyUser != "" {
		u.User = url.UserPassword(c.ProxyUser, c.ProxyPass)
	}
	return u, nil
}
