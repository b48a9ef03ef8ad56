//Package core contains the basic scoring pieces built on top of the imp kernel:
//unary functions, pair scores, restraints on distances, boxes and planes,
//particle containers (including a close-pairs container kept up to date with
//a slack) and a centroid score state.
package core
