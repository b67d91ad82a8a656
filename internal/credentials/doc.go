// Package credentials resolves named provider secrets and voice pools.
//
// Keys are lower-case names such as "alignment_api_key" or "voice_pool_es".
// A Store returns ErrNotFound when a key is absent; callers treat that as
// "not configured" rather than a failure. Chain consults stores in order so
// static values from the config file can shadow AWS SSM parameters.
package credentials
