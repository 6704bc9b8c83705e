// Package consts holds the ABI fragments for the four contracts the station
// talks to. Only the methods the station actually calls are declared.
package consts

// DragonABI covers the dragon NFT contract: ERC-721 enumeration and
// approval views plus the growth methods executed through the forwarder.
const DragonABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"isApprovedForAll","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]},
	{"type":"function","name":"getGrowthInfo","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"currentStage","type":"uint256"},{"name":"timeRemaining","type":"uint256"}]},
	{"type":"function","name":"evolve","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"feeding","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

// MarketABI covers the marketplace contract: listing/auction views plus the
// mutating listing methods executed through the forwarder.
const MarketABI = `[
	{"type":"function","name":"getListedInMarket","stateMutability":"view","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getListedInAuction","stateMutability":"view","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getAuctionStatusByToken","stateMutability":"view","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getAuctionStatus","stateMutability":"view","inputs":[{"name":"auctionId","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"tokenToItemId","stateMutability":"view","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getSaleStatus","stateMutability":"view","inputs":[{"name":"itemId","type":"uint256"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"listItem","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"duration","type":"uint256"},{"name":"price","type":"uint256"},{"name":"quantity","type":"uint256"},{"name":"forSale","type":"bool"}],"outputs":[]},
	{"type":"function","name":"listAuction","stateMutability":"nonpayable","inputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"duration","type":"uint256"},{"name":"price","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"resolveAuction","stateMutability":"nonpayable","inputs":[{"name":"auctionId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"unlistItem","stateMutability":"nonpayable","inputs":[{"name":"itemId","type":"uint256"}],"outputs":[]}
]`

// DrinkABI covers the fungible Drink token balance view.
const DrinkABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// ForwarderABI covers the trusted forwarder's nonce view.
const ForwarderABI = `[
	{"type":"function","name":"getNonce","stateMutability":"view","inputs":[{"name":"from","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`
