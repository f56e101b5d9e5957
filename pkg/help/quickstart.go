package help

const QuickstartYAML = `# wfstats Quick Start

commands:
  serve: |
    wfstats --db workflows.db serve
  snapshot: |
    wfstats stats
    wfstats stats --fields total_workflows,success_rate,is_scraping
  recent: |
    wfstats recent
    wfstats recent --format yaml
  windows: |
    wfstats session
    wfstats session diagnostic
    wfstats session 90s
  load_records: |
    wfstats ingest --file records.jsonl --notify
    cat records.jsonl | wfstats ingest

endpoints:
  stats: "GET /api/stats - full snapshot, recomputed per request"
  recent: "GET /api/recent - ten newest records"
  session: "GET /api/session?window=diagnostic - counts for one window"
  trigger: "POST /api/trigger-update - ask the refresh loop to run now"
  health: "GET /healthz"
  metrics: "GET /metrics - Prometheus gauges from the refresh loop"

status_priority:
  - "full_success: all three layers succeeded"
  - "invalid: error mentions 404, no iframe, no content or empty"
  - "failed: any other error"
  - "partial: some layers succeeded, no error"
  - "pending: everything else, including malformed records"

windows:
  session: "last 5 minutes (--session-window)"
  diagnostic: "last 10 minutes (--diagnostic-window)"

unknown_values:
  - "cpu_usage, memory_usage, uptime, active_processes and db_status read \"unknown\" when their source fails"
  - "the store failing is the only error: /api/stats answers 503"

config:
  file: "--config wfstats.yaml (keys: db_path, listen, session_window, ...)"
  env: "WFSTATS_DB, WFSTATS_LISTEN, WFSTATS_SESSION_WINDOW, ..."
  precedence: "flags and env > config file > defaults"
`
