// Package model implements the matrix-factorization model behind the
// recommendations: a biased SVD fitted with stochastic gradient descent over
// (employee, product, order count) ratings.
//
// The prediction for user u and item i is
//
//	r̂_ui = μ + b_u + b_i + q_i·p_u
//
// where μ is the global mean rating, b_u and b_i are user and item biases
// and p_u, q_i are latent factor vectors. Terms for a user or item that was
// not seen during training are taken as zero, so an unknown user is scored
// by μ + b_i. Estimates are clipped to the rating scale.
//
// Training is deterministic for a given Config.Seed and rating order.
package model
