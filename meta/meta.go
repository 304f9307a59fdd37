// meta/meta.go
package meta

// ITERATIONS defines the number of search iterations per move.
const ITERATIONS = 300

// CUTOFF defines the maximum number of random moves per rollout.
const CUTOFF = 10

// MAX_MOVES defines the number of plies after which a local game is abandoned.
const MAX_MOVES = 200

// PORT defines the default listening port of the agent server.
const PORT = "5000"

// EVALUATOR defines the default position evaluator name.
const EVALUATOR = "material"
