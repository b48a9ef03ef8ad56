//Package mc implements Monte Carlo sampling over an imp Model: movers that
//propose reversible moves, the Metropolis criterion, an optimizer that can use
//incremental scoring, a well-tempered ensemble (WTE) bias and a simulated
//annealing protocol.
package mc
