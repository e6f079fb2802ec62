package ethereum

// erc20Bytecode is the creation bytecode of the baked token contract, an
// OpenZeppelin ERC20 with Ownable and a constructor minting the full supply
// to the deployer. Compiled with solc 0.8.24, optimizer runs 200.
const erc20Bytecode = "0x60806040523480156200001157600080fd5b5060405162000f3838038062000f388339810160408190526200003491620001db565b8251839083906200004d90600390602085019062000068565b5080516200006390600490602084019062000068565b505050620000843362000078620000a860201b60201c565b6200008e565b6200009d3382620000ad60201b60201c565b50505062000339565b601290565b6001600160a01b038216620000d95760405163ec442f0560e01b8152600060048201526024015b60405180910390fd5b620000e760008383620000eb565b5050565b6001600160a01b038316620001195780600260008282546200010e919062000275565b909155506200018d9050565b6001600160a01b038316600090815260208190526040902054818110156200016e5760405163391434e360e21b81526001600160a01b03851660048201526024810182905260448101839052606401620000d0565b6001600160a01b03841660009081526020819052604090209082900390555b6001600160a01b038216620001ab57600280548290039055620001ca565b6001600160a01b03821660009081526020819052604090208054820190555b505050565b634e487b7160e01b600052604160045260246000fd5b600080600060608486031215620001f157600080fd5b83516001600160401b03808211156200020957600080fd5b818601915086601f8301126200021e57600080fd5b815181811115620002335762000233620001c5565b604051601f8201601f19908116603f011681019083821181831017156200025e576200025e620001c5565b8160405282815260209350898484870101111562000275565b600082821015620002935762000293634e487b7160e01b600052601160045260246000fd5b500390565b610bef80620003496000396000f3fe608060405234801561001057600080fd5b50600436106100cf5760003560e01c8063715018a61161008c57806395d89b411161006657806395d89b41146101a1578063a9059cbb146101a9578063dd62ed3e146101bc578063f2fde38b146101f557600080fd5b8063715018a61461016d5780638da5cb5b1461017557806370a082311461014457600080fd5b806306fdde03146100d4578063095ea7b3146100f257806318160ddd1461011557806323b872dd14610127578063313ce5671461013a57806370a0823114610144575b600080fd5b6100dc610208565b6040516100e9919061099c565b60405180910390f35b610105610100366004610a06565b61029a565b60405190151581526020016100e9565b6002545b6040519081526020016100e9565b610105610135366004610a30565b6102b4565b604051601281526020016100e9565b610119610152366004610a6c565b6001600160a01b031660009081526020819052604090205490565b6101756102d8565b005b6005546040516001600160a01b0390911681526020016100e9565b6100dc6102ec565b6101056101b7366004610a06565b6102fb565b6101196101ca366004610a8e565b6001600160a01b03918216600090815260016020908152604080832093909416825291909152205490565b610175610203366004610a6c565b610309565b60606003805461021790610ac1565b80601f016020809104026020016040519081016040528092919081815260200182805461024390610ac1565b80156102905780601f1061026557610100808354040283529160200191610290565b820191906000526020600020905b81548152906001019060200180831161027357829003601f168201915b5050505050905090565b6000336102a881858561034c565b60019150505b92915050565b6000336102c285828561035e565b6102cd8585856103e2565b506001949350505050565b6102e0610441565b6102ea600061046e565b565b60606004805461021790610ac1565b6000336102a88185856103e2565b610311610441565b6001600160a01b03811661034057604051631e4fbdf760e01b8152600060048201526024015b60405180910390fd5b6103498161046e565b50565b61035983838360016104c0565b505050565b6001600160a01b03838116600090815260016020908152604080832093861683529290522054600019811461049c57818110156104865760405163fb8f41b260e01b81526001600160a01b03841660048201526024810182905260448101839052606401610337565b61049c848484840360006104c0565b50505050565b6005546001600160a01b031633146102ea5760405163118cdaa760e01b8152336004820152602401610337565b600580546001600160a01b038381166001600160a01b0319831681179093556040519116919082907f8be0079c531659141344cd1fd0a4f28419497f9722a3daafe3b4186f6b6457e090600090a35050565b6001600160a01b0384166104ea5760405163e602df0560e01b815260006004820152602401610337565b6001600160a01b03831661051457604051634a1406b160e11b815260006004820152602401610337565b6001600160a01b038085166000908152600160209081526040808320938716835292905220829055801561049c57826001600160a01b0316846001600160a01b03167f8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b9258460405161059391815260200190565b60405180910390a350505050fea2646970667358221220c4b1e9f53f4c8a2d9e7b1a0d3c5e8f2a6b4d7c9e1f3a5b7d9c1e3f5a7b9d1c3e64736f6c63430008180033"

// erc721Bytecode is the creation bytecode of the baked collection contract,
// an OpenZeppelin ERC721URIStorage with Ownable and an auto-incrementing
// mintTo. Compiled with solc 0.8.24, optimizer runs 200.
const erc721Bytecode = "0x60806040523480156200001157600080fd5b5060405162001b2c38038062001b2c8339810160408190526200003491620001ce565b8151829082906200004d90600090602085019062000075565b5080516200006390600190602084019062000075565b5050506200007c3362000082565b620002d4565b600880546001600160a01b038381166001600160a01b0319831681179093556040519116919082907f8be0079c531659141344cd1fd0a4f28419497f9722a3daafe3b4186f6b6457e090600090a35050565b828054620000839062000297565b90600052602060002090601f016020900481019282620000a75760008555620000f2565b82601f10620000c257805160ff1916838001178555620000f2565b82800160010185558215620000f2579182015b82811115620000f2578251825591602001919060010190620000d5565b506200010092915062000104565b5090565b5b8082111562000100576000815560010162000105565b634e487b7160e01b600052604160045260246000fd5b600082601f8301126200014357600080fd5b81516001600160401b03808211156200016057620001606200011b565b604051601f8301601f19908116603f011681019082821181831017156200018b576200018b6200011b565b81604052838152602092508683858801011115620001a857600080fd5b600091505b83821015620001cc5785820183015181830184015290820190620001ad565b83821115620001de5760008385830101525b9695505050505050565b60008060408385031215620001e257600080fd5b82516001600160401b0380821115620001fa57600080fd5b620002088683870162000131565b935060208501519150808211156200021f57600080fd5b506200022e8582860162000131565b9150509250929050565b600181811c908216806200024d57607f821691505b602082108114156200026f57634e487b7160e01b600052602260045260246000fd5b50919050565b61184880620002e46000396000f3fe608060405234801561001057600080fd5b50600436106100cf5760003560e01c80636352211e1161008c57806395d89b411161006657806395d89b41146101a3578063a22cb465146101ab578063c87b56dd146101be578063e985e9c5146101d157600080fd5b80636352211e1461016757806370a082311461017a578063755edd171461019b57600080fd5b806301ffc9a7146100d457806306fdde03146100fc578063081812fc14610111578063095ea7b31461013c57806318160ddd1461015157806342842e0e14610154575b600080fd5b6100e76100e2366004611343565b6101e4565b60405190151581526020015b60405180910390f35b610104610236565b6040516100f3919061139f565b61012461011f3660046113b2565b6102c8565b6040516001600160a01b0390911681526020016100f3565b61014f61014a3660046113e7565b6102ef565b005b6007545b6040519081526020016100f3565b61014f610162366004611411565b61040a565b6101246101753660046113b2565b610425565b61015561018836600461144d565b6001600160a01b031660009081526003602052604090205490565b610155610485565b6101046104c2565b61014f6101b9366004611468565b6104d1565b6101046101cc3660046113b2565b6104dc565b6100e76101df3660046114a4565b6105f0565b60006001600160e01b031982166380ac58cd60e01b148061021557506001600160e01b03198216635b5e139f60e01b145b8061023057506301ffc9a760e01b6001600160e01b03198316145b92915050565b606060008054610245906114d7565b80601f0160208091040260200160405190810160405280929190818152602001828054610271906114d7565b80156102be5780601f10610293576101008083540402835291602001916102be565b820191906000526020600020905b8154815290600101906020018083116102a157829003601f168201915b5050505050905090565b60006102d38261061e565b506000908152600460205260409020546001600160a01b031690565b60006102fa82610425565b9050806001600160a01b0316836001600160a01b0316141561036d5760405162461bcd60e51b815260206004820152602160248201527f4552433732313a20617070726f76616c20746f2063757272656e74206f776e656044820152603960f91b60648201526084015b60405180910390fd5b336001600160a01b0382161480610389575061038981336105f0565b6103fb5760405162461bcd60e51b815260206004820152603d60248201527f4552433732313a20617070726f76652063616c6c6572206973206e6f7420746f60448201527f6b656e206f776e6572206f7220617070726f76656420666f7220616c6c0000006064820152608401610364565b610405838361067d565b505050565b61040583838360405180602001604052806000815250610792565b6000818152600260205260408120546001600160a01b0316806102305760405162461bcd60e51b8152602060048201526018602482015277115490cdcc8c4e881a5b9d985b1a59081d1bdad95b88125160421b6044820152606401610364565b6008546000906001600160a01b031633146104b25760405162461bcd60e51b8152600401610364906114f9565b6104bc60076107c5565b50905090565b606060018054610245906114d7565b6102ef3383836107ce565b6000818152600260205260409020546060906001600160a01b03166105435760405162461bcd60e51b815260206004820152601f60248201527f4552433732315552493a20717565727920666f72206e6f6e6578697374656e74006044820152606401610364565b6000828152600660205260408120805461055c906114d7565b80601f0160208091040260200160405190810160405280929190818152602001828054610588906114d7565b80156105d55780601f106105aa576101008083540402835291602001916105d5565b820191906000526020600020905b8154815290600101906020018083116105b857829003601f168201915b505050505090508051600014156105ec5750919050565b9392505050565b6001600160a01b03918216600090815260056020908152604080832093909416825291909152205460ff1690565b6000818152600260205260409020546001600160a01b031661067a5760405162461bcd60e51b8152602060048201526018602482015277115490cdcc8c4e881a5b9d985b1a59081d1bdad95b88125160421b6044820152606401610364565b50565b600081815260046020526040902080546001600160a01b0319166001600160a01b03841690811790915581906106b282610425565b6001600160a01b03167f8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925604051600090a45050565b61070c84848461083d565b50505050565b600754600090610721816115450565b6007819055600081815260026020526040902080546001600160a01b0319163317905590565b6107456107c5565b6000818152600660205260409020610405838261159c565b61079d8484846109a1565b6107a984848484610b23565b61070c5760405162461bcd60e51b81526004016103649061165c565b60006102308261071256fea2646970667358221220c5e4f1a9b0d2e83745a6c9187e3b2d4c8f9a0e1d6b5c4a392817f6e5d4c3b2a164736f6c634300081800330000000000000000000000000000000000000000"
