package config

// DefaultConfigYAML contains the default configuration YAML content.
// This is written by `shockcast init` and mirrors the loader defaults.
const DefaultConfigYAML = `# shockcast configuration
#
# Values not specified here use built-in defaults. Every key can be overridden
# with an environment variable: SHOCKCAST_<SECTION>_<KEY>, e.g. SHOCKCAST_LOG_LEVEL.

log:
  level: info        # debug | info | warn | error
  format: auto       # auto | text | json

normalize:
  # Confidence penalty applied to events that match no known category.
  generic_penalty: 0.25
  # Minimum share of a candidate alias the event type must cover for a fuzzy match.
  fuzzy_min_coverage: 0.6

agents:
  min_similarity: 0.4
  max_comparisons: 8
  # Multiplier applied to every sector sensitivity table.
  sector_scale: 1.0

ensemble:
  models: [rule, historical, evt, regression]
  # Clamp the combined estimate into the severity band so impact is monotone in severity.
  calibrate_severity: true
  evt_categories: [pandemic, natural_disaster, economic_crisis, geopolitical, polycrisis, recession, climate, generic]
  evt_min_samples: 5
  evt_level: 0.95

immunity:
  coefficient: 0.3
  # Count same-category comparisons as prior events when no history is available.
  derive_from_comparisons: false
  derive_min_similarity: 0.8
  history_window: 8760h

forecast:
  epsilon: 0.05
  max_horizon_days: 1095
  # Per-category acute decay rates (per day). Unlisted categories use built-in values.
  decay_rates: {}

consensus:
  enabled: false
  roles: [data_analysis, forecasting, behavioral, economic, strategy]
  role_timeout: 2s
  refine_rate: 0.5
  abstention_penalty: 0.2

scenarios:
  max_parallel: 4

reference:
  # Optional YAML file replacing the built-in comparables dataset.
  path: ""
  # Reload the file on change while serving.
  watch: false

history:
  enabled: false
  path: .shockcast/history.db

report:
  format: text       # text | json
  destination: "-"   # - (stdout) | clipboard | file path

server:
  host: 127.0.0.1
  port: 8080
  rate_limit: 5      # requests per second per client
  rate_burst: 10
  allowed_origins: ["*"]
  request_timeout: 30s
`
