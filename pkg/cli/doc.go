// Package cli implements the rhsmctl command-line interface.
//
// # Overview
//
// rhsmctl drives subscription-manager to list, attach and remove
// entitlement pools, converges a host to a declared PoolList manifest, and
// reports subscription facts for inventory systems.
//
// # Commands
//
// pools - Inspect and change consumed pools:
//
//	rhsmctl pools list [--format json|yaml|table] [--output FILE|cm://ns/name]
//	rhsmctl pools attach --id 1a2b3c4d5e6f1234567890abcdef12345
//	rhsmctl pools remove --serial 1234567890123456789
//	rhsmctl pools remove --id 1234abc
//
// apply - Converge to a manifest:
//
//	rhsmctl apply --manifest pools.yaml [--dry-run]
//
// The consumed pools are listed once, then each declared pool is attached
// (ensure: present) or removed (ensure: absent) when it differs. Failures
// are reported per pool id and make the command exit nonzero.
//
// facts - Report inventory facts:
//
//	rhsmctl facts [--fact rhsm_enabled_repos ...] [--no-cache] [--ttl 24h]
//	rhsmctl facts --output cm://inventory/node-1
//
// serve - Inventory API with background refresh:
//
//	rhsmctl serve [--port 8080] [--refresh-schedule "@every 1h"]
//
// # Global Flags
//
//	--tool      subscription-manager path (RHSM_TOOL)
//	--timeout   per invocation time limit (RHSM_TIMEOUT)
//	--debug     debug logging (or LOG_LEVEL=debug)
//	--log-json  JSON log records
//	--log-file  rotated log file (RHSM_LOG_FILE)
package cli
