// Package csv reads operations from delimited records and writes account
// reports in the same format.
//
// Input starts with a header naming the columns type, client, tx and amount,
// in any order. Cells are trimmed and rows may omit the trailing amount.
//
//	type,client,tx,amount
//	deposit, 1, 1, 1.0
//	dispute, 1, 1
package csv
